package audit

import (
	"context"
	"fmt"
)

// RowAppender описывает, что стоку нужно от клиента таблицы.
type RowAppender interface {
	AppendRows(ctx context.Context, tab, rng string, rows [][]string) error
}

// SheetSink пишет события журнала строками в таблицу Google — тот же
// формат, что и у ручного журнала HR.
type SheetSink struct {
	appender RowAppender
	tab      string
	rng      string
}

func NewSheetSink(appender RowAppender, tab, rng string) *SheetSink {
	return &SheetSink{appender: appender, tab: tab, rng: rng}
}

func (s *SheetSink) WriteBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.UserID, e.UserName, e.Branch, e.Position,
			e.CaseKind, e.Department, e.TimeRange,
			e.FromDate, e.ToDate, e.Outcome, e.Reason, e.SubmittedAt,
		})
	}

	if err := s.appender.AppendRows(ctx, s.tab, s.rng, rows); err != nil {
		return fmt.Errorf("sheet sink: %w", err)
	}
	return nil
}
