package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "timeoff"

	// RedisKeyActionLock — префикс ключей mutual-exclusion по message_ts заявки.
	RedisKeyActionLock = RedisNamespace + ":action:lock:"
)
