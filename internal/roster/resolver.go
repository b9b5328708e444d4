// Package roster резолвит состав согласующих для заявки: по отделу и рангу
// заявителя вычисляет множество людей, имеющих право на Accept/Reject.
// Резолв выполняется ровно один раз — в момент подачи заявки; дальше состав
// путешествует внутри снапшота.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
)

const (
	// PositionStaff / PositionManager — ранги из формы и из колонки ростера.
	PositionStaff   = "staff"
	PositionManager = "manager"

	// deptExecutive всегда согласуется своими менеджерами независимо от
	// ранга заявителя. deptHR подмешивается к любому составу как
	// контролирующий канал.
	deptExecutive = "bod"
	deptHR        = "hr"
)

var (
	// ErrUnknownDepartment — отдела нет в ростере. Фатальная ошибка
	// конфигурации для данной заявки, а не пустой состав.
	ErrUnknownDepartment = errors.New("department is not present in approver roster")

	// ErrNoApprovers — резолв дал пустое множество. Тоже ошибка
	// конфигурации: заявка без единого согласующего не должна молча
	// превращаться в авто-одобренную.
	ErrNoApprovers = errors.New("resolved approver set is empty")
)

// TabularSource описывает, что резолверу нужно от табличного хранилища.
type TabularSource interface {
	ReadRange(ctx context.Context, tab, rng string) ([][]string, error)
}

type deptGroup struct {
	employees []domain.User
	managers  []domain.User
}

type Resolver struct {
	src    TabularSource
	tab    string
	rng    string
	logger *zap.Logger
}

func NewResolver(src TabularSource, tab, rng string, logger *zap.Logger) *Resolver {
	return &Resolver{
		src:    src,
		tab:    tab,
		rng:    rng,
		logger: logger.With(zap.String("mod", "roster")),
	}
}

// Resolve вычисляет упорядоченное множество согласующих.
// Ростер перечитывается на каждый вызов — кэша нет, правки таблицы
// действуют со следующей заявки.
func (r *Resolver) Resolve(ctx context.Context, department, position string) ([]domain.User, error) {
	groups, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	dept := strings.ToLower(department)
	group, ok := groups[dept]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDepartment, department)
	}

	var entitled []domain.User
	switch {
	case dept == deptExecutive:
		// Фиксированное исключение политики: BOD всегда идут к своим
		// менеджерам, ранг заявителя роли не играет.
		entitled = group.managers
	case position == PositionManager:
		entitled = unionUsers(group.managers, groups[deptHR].employees)
	default:
		entitled = unionUsers(group.employees, groups[deptHR].employees)
	}

	if len(entitled) == 0 {
		return nil, fmt.Errorf("%w: department %q, position %q", ErrNoApprovers, department, position)
	}

	r.logger.Debug("approvers resolved",
		zap.String("department", dept),
		zap.String("position", position),
		zap.Int("count", len(entitled)))

	return entitled, nil
}

// load перечитывает ростер: строки (id, имя, ранг, отдел).
func (r *Resolver) load(ctx context.Context) (map[string]deptGroup, error) {
	rows, err := r.src.ReadRange(ctx, r.tab, r.rng)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	groups := make(map[string]deptGroup)
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		user := domain.User{ID: row[0], Name: row[1]}
		position := strings.ToLower(row[2])
		dept := strings.ToLower(row[3])

		g := groups[dept]
		switch position {
		case PositionStaff:
			g.employees = append(g.employees, user)
		case PositionManager:
			g.managers = append(g.managers, user)
		default:
			r.logger.Warn("roster row with unknown position skipped",
				zap.String("user_id", user.ID), zap.String("position", row[2]))
			continue
		}
		groups[dept] = g
	}
	return groups, nil
}

// unionUsers объединяет два списка с дедупликацией по ID.
// Порядок стабилен: побеждает первое вхождение — он же станет порядком
// Pending в снапшоте.
func unionUsers(a, b []domain.User) []domain.User {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]domain.User, 0, len(a)+len(b))
	for _, u := range append(append([]domain.User{}, a...), b...) {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}
