package postgres

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/timeoff-flow-prototype/internal/audit"
)

// AuditRepo — опциональное зеркало журнала решений в Postgres.
// Источник правды для отчетности остается в таблице Google; зеркало нужно,
// когда журнал хочется дергать SQL-ом, не упираясь в квоты Sheets API.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(connString string) *AuditRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// Соединение проверяется через Ping в main
		log.Fatal(err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице approval_log
	numFields := 16
	placeholderStr := ""
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10, p+11, p+12, p+13, p+14, p+15, p+16)

		vals = append(vals,
			e.ID, e.TraceID, e.UserID, e.UserName, e.Branch, e.Position,
			e.CaseKind, e.Department, e.TimeRange, e.FromDate, e.ToDate,
			e.Outcome, e.Reason, e.SubmittedAt, e.DecidedBy, e.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO approval_log (id, trace_id, user_id, user_name, branch, position, case_kind, department, time_range, from_date, to_date, outcome, reason, submitted_at, decided_by, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	return err
}
