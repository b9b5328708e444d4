package domain

import (
	"fmt"
	"time"
)

// DateLayout — формат дат заявки (точность до дня).
const DateLayout = "02-01-2006"

// ParseDate разбирает дату формы в формате dd-mm-yyyy.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ValidateDateRange проверяет fromDate <= toDate. Проверка выполняется один
// раз при подаче формы, state machine датам доверяет.
func ValidateDateRange(from, to string) error {
	f, err := ParseDate(from)
	if err != nil {
		return err
	}
	t, err := ParseDate(to)
	if err != nil {
		return err
	}
	if f.After(t) {
		return fmt.Errorf("from date %s is after to date %s", from, to)
	}
	return nil
}

// DateSpan схлопывает одинаковые границы в одну дату для отображения.
func DateSpan(from, to string) string {
	if from == to {
		return from
	}
	return fmt.Sprintf("%s — %s", from, to)
}
