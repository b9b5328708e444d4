package flow

import (
	"fmt"

	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
	"github.com/xela07ax/timeoff-flow-prototype/internal/slack"
)

// Подписи категорий для карточек и уведомлений.
var caseLabels = map[domain.CaseKind]string{
	domain.CaseLateArrival:    "Late arrival",
	domain.CaseEarlyDeparture: "Early departure",
	domain.CasePaidLeave:      "Paid leave",
	domain.CaseWFH:            "Work from home",
}

func caseLabel(kind domain.CaseKind) string {
	if label, ok := caseLabels[kind]; ok {
		return label
	}
	return string(kind)
}

// renderCard целиком пересобирает карточку согласования. Дифференциальных
// апдейтов нет: фиксированный заголовок, затем либо интерактивный блок
// (пока есть Pending), либо статусный, затем разделитель.
func renderCard(s *domain.Snapshot, terminal domain.RequestStatus) ([]slack.Block, error) {
	blocks := []slack.Block{renderHeader(s)}

	switch {
	case terminal == domain.StatusRejected:
		blocks = append(blocks, slack.Section(slack.Markdown("*Request rejected*")))

	case len(s.Pending) == 0:
		blocks = append(blocks, slack.Section(slack.Markdown("*Request approved*")))

	default:
		payload, err := s.Encode()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks,
			slack.Actions(
				slack.Button(ActionAccept, "Accept", "primary", payload),
				slack.Button(ActionReject, "Reject", "danger", payload),
			),
			slack.Section(slack.Markdown(
				fmt.Sprintf("*Waiting for %s to confirm*", slack.Mentions(s.Pending)),
			)),
		)
	}

	return append(blocks, slack.Divider()), nil
}

// renderHeader — тело заявки. Строится только из снапшота, поэтому карточка
// воспроизводима с любого клика без обращения к истории сообщения.
func renderHeader(s *domain.Snapshot) slack.Block {
	text := fmt.Sprintf(
		"A time-off request needs your approval [%s]\n"+
			"```\n"+
			"Office:      %s\n"+
			"Department:  %s\n"+
			"Name:        %s (%s)\n"+
			"Case:        %s\n"+
			"Reason:      %s\n"+
			"Time:        %s\n"+
			"Date:        %s\n"+
			"```",
		slack.Mentions(append(append([]domain.User{}, s.Pending...), s.Accepted...)),
		s.Branch,
		s.Department,
		s.Requester.Name, slack.Mention(s.Requester.ID),
		caseLabel(s.CaseKind),
		s.Reason,
		s.TimeRange,
		domain.DateSpan(s.FromDate, s.ToDate),
	)
	return slack.Section(slack.Markdown(text))
}

// renderAnnouncement — итоговое сообщение в канал уведомлений после полного
// согласования.
func renderAnnouncement(s *domain.Snapshot) string {
	return fmt.Sprintf(
		"%s is off: *%s*\n"+
			"```\n"+
			"Office:      %s\n"+
			"Department:  %s\n"+
			"Case:        %s\n"+
			"Name:        %s %s\n"+
			"Time:        %s\n"+
			"Date:        %s\n"+
			"```",
		s.Requester.Name,
		caseLabel(s.CaseKind),
		s.Branch,
		s.Department,
		caseLabel(s.CaseKind),
		s.Requester.Name, slack.Mention(s.Requester.ID),
		s.TimeRange,
		domain.DateSpan(s.FromDate, s.ToDate),
	)
}
