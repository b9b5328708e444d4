package flow

/*
Файл engine.go — ядро согласования: переходы state machine по кликам
Accept/Reject.

Порядок шагов фиксирован и важен:
 1. снапшот восстанавливается из payload клика (серверного состояния нет);
 2. проверки членства (дубль клика, авторизация) — ДО захвата ledger,
    чтобы отказ в авторизации не выедал окно блокировки;
 3. mutual-exclusion по ts карточки: проигравший конкурирующий клик
    отбрасывается молча, пользователь переклинет сам;
 4. мутация множеств Pending/Accepted и полная пересборка карточки;
 5. завершающие side effects (анонс, журнал, DM) — best-effort и независимы
    друг от друга: отказ одного не блокирует и не откатывает другой;
 6. освобождение ledger после того, как side effects отправлены.
*/

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/timeoff-flow-prototype/internal/audit"
	"github.com/xela07ax/timeoff-flow-prototype/internal/domain"
	"github.com/xela07ax/timeoff-flow-prototype/internal/ledger"
	"github.com/xela07ax/timeoff-flow-prototype/internal/roster"
	"github.com/xela07ax/timeoff-flow-prototype/internal/slack"
)

// ChatSender Описываем, что state machine нужно от чат-платформы.
// Все вызовы для нее fire-and-forget: ошибки логируются, не ретраятся
// (ретраи живут уровнем ниже, в клиенте).
type ChatSender interface {
	PostMessage(ctx context.Context, channel, text string, blocks []slack.Block) (string, error)
	UpdateMessage(ctx context.Context, channel, ts, text string, blocks []slack.Block) error
	PostEphemeral(ctx context.Context, channel, user, text string) error
	PostDM(ctx context.Context, userID, text string) error
}

// ApproverResolver вычисляет состав согласующих в момент подачи заявки.
type ApproverResolver interface {
	Resolve(ctx context.Context, department, position string) ([]domain.User, error)
}

type Engine struct {
	ledger   ledger.Ledger
	chat     ChatSender
	resolver ApproverResolver
	trail    audit.Recorder
	metrics  *Metrics
	logger   *zap.Logger

	reviewChannel   string
	announceChannel string

	now func() time.Time
}

func NewEngine(
	ldg ledger.Ledger,
	chat ChatSender,
	resolver ApproverResolver,
	trail audit.Recorder,
	metrics *Metrics,
	logger *zap.Logger,
	reviewChannel, announceChannel string,
) *Engine {
	return &Engine{
		ledger:          ldg,
		chat:            chat,
		resolver:        resolver,
		trail:           trail,
		metrics:         metrics,
		logger:          logger.Named("flow"),
		reviewChannel:   reviewChannel,
		announceChannel: announceChannel,
		now:             time.Now,
	}
}

// HandleSubmission превращает форму в карточку согласования.
// Резолв согласующих происходит ровно здесь и больше никогда: дальше состав
// живет в снапшоте на кнопках.
func (e *Engine) HandleSubmission(ctx context.Context, form FormSubmission) error {
	if err := domain.ValidateDateRange(form.FromDate, form.ToDate); err != nil {
		return err
	}

	entitled, err := e.resolver.Resolve(ctx, form.Department, form.Position)
	if err != nil {
		// Неизвестный отдел/пустой состав — ошибка конфигурации, о ней
		// сообщаем заявителю лично, а не молча авто-одобряем
		if notifyErr := e.chat.PostDM(ctx, form.Requester.ID,
			"Your request could not be submitted: approvers are not configured for department \""+form.Department+"\". Please contact HR."); notifyErr != nil {
			e.logger.Error("failed to notify requester about config error", zap.Error(notifyErr))
		}
		return fmt.Errorf("resolve approvers: %w", err)
	}

	snap := &domain.Snapshot{
		SchemaVersion: domain.SnapshotVersion,
		Requester:     form.Requester,
		CaseKind:      form.CaseKind,
		Branch:        form.Branch,
		Department:    form.Department,
		Position:      form.Position,
		Reason:        form.Reason,
		TimeRange:     form.TimeRange,
		FromDate:      form.FromDate,
		ToDate:        form.ToDate,
		SubmittedAt:   e.now().Format("15:04, 02-01-2006"),
		Pending:       entitled,
	}

	blocks, err := renderCard(snap, domain.StatusAwaiting)
	if err != nil {
		return err
	}

	if _, err := e.chat.PostMessage(ctx, e.reviewChannel, "Time-off request", blocks); err != nil {
		return fmt.Errorf("post review card: %w", err)
	}

	if err := e.chat.PostDM(ctx, form.Requester.ID, "Your request has been sent for approval."); err != nil {
		e.logger.Warn("failed to confirm submission to requester", zap.Error(err))
	}

	e.logger.Info("request submitted",
		zap.String("requester", form.Requester.ID),
		zap.String("department", form.Department),
		zap.Int("approvers", len(entitled)))

	return nil
}

// HandleAccept обрабатывает клик Accept.
func (e *Engine) HandleAccept(ctx context.Context, act Action) {
	timer := time.Now()
	defer func() {
		e.metrics.HandleDuration.WithLabelValues(ActionAccept).Observe(time.Since(timer).Seconds())
	}()

	log := e.logger.With(
		zap.String("trace_id", act.TraceID),
		zap.String("actor", act.Actor.ID),
		zap.String("message_ts", act.MessageTS))

	snap, ok := e.admit(ctx, ActionAccept, act, log)
	if !ok {
		return
	}
	defer e.ledger.Release(ctx, act.MessageTS)

	if err := snap.Accept(act.Actor.ID); err != nil {
		// Членство проверено до захвата — сюда попадать некуда
		log.Error("accept mutation failed", zap.Error(err))
		return
	}
	e.metrics.ActionsTotal.WithLabelValues(ActionAccept, ResultAdmitted).Inc()

	e.updateCard(ctx, act, snap, domain.StatusAwaiting, log)

	if !snap.Completed() {
		log.Info("accept recorded, chain continues", zap.Int("pending_left", len(snap.Pending)))
		return
	}

	// Цепочка закрыта: анонс и журнал независимы, отказ одного не
	// откатывает ни переход, ни второй эффект
	if _, err := e.chat.PostMessage(ctx, e.announceChannel, renderAnnouncement(snap), nil); err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("announce").Inc()
		log.Error("announcement failed", zap.Error(err))
	}

	e.trail.Record(e.buildEvent(act, snap, audit.OutcomeApprove))
	e.metrics.CompletedTotal.WithLabelValues(audit.OutcomeApprove).Inc()
	log.Info("request fully approved")
}

// HandleReject обрабатывает клик Reject: единоличное вето, терминальное
// независимо от числа оставшихся согласующих.
func (e *Engine) HandleReject(ctx context.Context, act Action) {
	timer := time.Now()
	defer func() {
		e.metrics.HandleDuration.WithLabelValues(ActionReject).Observe(time.Since(timer).Seconds())
	}()

	log := e.logger.With(
		zap.String("trace_id", act.TraceID),
		zap.String("actor", act.Actor.ID),
		zap.String("message_ts", act.MessageTS))

	snap, ok := e.admit(ctx, ActionReject, act, log)
	if !ok {
		return
	}
	defer e.ledger.Release(ctx, act.MessageTS)

	if err := snap.Reject(act.Actor.ID); err != nil {
		log.Error("reject validation failed", zap.Error(err))
		return
	}
	e.metrics.ActionsTotal.WithLabelValues(ActionReject, ResultAdmitted).Inc()

	e.updateCard(ctx, act, snap, domain.StatusRejected, log)

	e.trail.Record(e.buildEvent(act, snap, audit.OutcomeReject))
	e.metrics.CompletedTotal.WithLabelValues(audit.OutcomeReject).Inc()

	if err := e.chat.PostDM(ctx, snap.Requester.ID, fmt.Sprintf(
		"Your time-off request [%s] was rejected. Please contact HR for details.",
		snap.SubmittedAt)); err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("dm").Inc()
		log.Error("reject notification failed", zap.Error(err))
	}

	log.Info("request rejected")
}

// admit выполняет общие для Accept/Reject шаги: декодирование снапшота,
// проверки членства, захват ledger. false — действие не прошло, все
// уведомления уже отправлены (или сознательно не отправлены).
func (e *Engine) admit(ctx context.Context, action string, act Action, log *zap.Logger) (*domain.Snapshot, bool) {
	snap, err := domain.DecodeSnapshot(act.RawPayload)
	if err != nil {
		e.metrics.ActionsTotal.WithLabelValues(action, ResultMalformed).Inc()
		log.Error("dropping action with malformed payload", zap.Error(err))
		return nil, false
	}

	// Повторный клик уже согласовавшего — идемпотентный no-op
	if snap.HasAccepted(act.Actor.ID) {
		e.metrics.ActionsTotal.WithLabelValues(action, ResultDuplicate).Inc()
		log.Debug("duplicate click ignored")
		return nil, false
	}

	// Чужой актор: приватный отказ, общий тред не засоряем
	if !snap.IsPending(act.Actor.ID) {
		e.metrics.ActionsTotal.WithLabelValues(action, ResultUnauthorized).Inc()
		if err := e.chat.PostEphemeral(ctx, act.ChannelID, act.Actor.ID, fmt.Sprintf(
			"This request must be handled by the %s department approvers.", snap.Department)); err != nil {
			e.metrics.SideEffectFailures.WithLabelValues("ephemeral").Inc()
			log.Error("ephemeral notice failed", zap.Error(err))
		}
		return nil, false
	}

	// Конкурирующий клик по той же заявке уже в обработке: молчаливый дроп,
	// без обратной связи — карточка перерисуется победителем
	if !e.ledger.TryAcquire(ctx, act.MessageTS) {
		e.metrics.ActionsTotal.WithLabelValues(action, ResultContention).Inc()
		return nil, false
	}

	return snap, true
}

func (e *Engine) updateCard(ctx context.Context, act Action, snap *domain.Snapshot, terminal domain.RequestStatus, log *zap.Logger) {
	blocks, err := renderCard(snap, terminal)
	if err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("card_update").Inc()
		log.Error("card render failed", zap.Error(err))
		return
	}
	if err := e.chat.UpdateMessage(ctx, act.ChannelID, act.MessageTS, "Time-off request", blocks); err != nil {
		e.metrics.SideEffectFailures.WithLabelValues("card_update").Inc()
		log.Error("card update failed", zap.Error(err))
	}
}

func (e *Engine) buildEvent(act Action, snap *domain.Snapshot, outcome string) audit.Event {
	return audit.Event{
		ID:          uuid.New().String(),
		TraceID:     act.TraceID,
		UserID:      snap.Requester.ID,
		UserName:    snap.Requester.Name,
		Branch:      snap.Branch,
		Position:    snap.Position,
		CaseKind:    string(snap.CaseKind),
		Department:  snap.Department,
		TimeRange:   snap.TimeRange,
		FromDate:    snap.FromDate,
		ToDate:      snap.ToDate,
		Outcome:     outcome,
		Reason:      snap.Reason,
		SubmittedAt: snap.SubmittedAt,
		DecidedBy:   act.Actor.ID,
		Timestamp:   e.now(),
	}
}

// Проверка, что резолвер ростера подходит под локальный интерфейс.
var _ ApproverResolver = (*roster.Resolver)(nil)

// IsConfigError — ошибки подачи, о которых стоит сказать заявителю
// (а не только в лог).
func IsConfigError(err error) bool {
	return errors.Is(err, roster.ErrUnknownDepartment) || errors.Is(err, roster.ErrNoApprovers)
}
