package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	"github.com/smallbiznis/lendora/internal/authorization"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	opsdomain "github.com/smallbiznis/lendora/internal/operations/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"github.com/smallbiznis/lendora/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type HandlerParams struct {
	fx.In

	Log        *zap.Logger
	Sender     Sender
	Operations opsdomain.Service
	Orders     orderdomain.Service
	Accounts   accountdomain.Service
	Broadcasts broadcastdomain.Service
	Ledger     ledgerdomain.Service
	Sessions   session.Store
	Auth       *authorization.Service
}

// Handlers owns the operator-facing flows: quick amount shortcuts, order
// action buttons, and the schedule/account configuration dialogues.
type Handlers struct {
	log        *zap.Logger
	sender     Sender
	operations opsdomain.Service
	orders     orderdomain.Service
	accounts   accountdomain.Service
	broadcasts broadcastdomain.Service
	ledger     ledgerdomain.Service
	sessions   session.Store
	auth       *authorization.Service
}

func NewHandlers(p HandlerParams) *Handlers {
	return &Handlers{
		log:        p.Log.Named("dispatch.handlers"),
		sender:     p.Sender,
		operations: p.Operations,
		orders:     p.Orders,
		accounts:   p.Accounts,
		broadcasts: p.Broadcasts,
		ledger:     p.Ledger,
		sessions:   p.Sessions,
		auth:       p.Auth,
	}
}

// Register wires every flow into the router with its middleware chain.
func (h *Handlers) Register(r *Router, recover, authorized, groupOnly, privateOnly Middleware) {
	r.Command("create", Chain(h.CreateOrder, recover, authorized, groupOnly))
	r.Command("breach_end", Chain(h.BreachEndCommand, recover, authorized, groupOnly))
	r.Command("status", Chain(h.OrderStatus, recover, authorized, groupOnly))
	r.Command("totals", Chain(h.Totals, recover, authorized, privateOnly))
	r.Command("schedule", Chain(h.ScheduleCommand, recover, authorized, privateOnly))
	r.Command("accounts", Chain(h.ListAccounts, recover, authorized, privateOnly))
	r.Command("grant", Chain(h.GrantOperator, recover, authorized, privateOnly))
	r.Command("revoke", Chain(h.RevokeOperator, recover, authorized, privateOnly))

	r.CallbackPrefix("order_action_", Chain(h.OrderAction, recover, authorized, groupOnly))
	r.CallbackPrefix("schedule_", Chain(h.ScheduleCallback, recover, authorized, privateOnly))
	r.CallbackPrefix("payment_", Chain(h.PaymentCallback, recover, authorized, privateOnly))

	r.Text(Chain(h.FreeText, recover, authorized))
}

// CreateOrder handles `/create <group_id> <customer> <amount> [old]`.
func (h *Handlers) CreateOrder(ctx context.Context, ev Event) error {
	if len(ev.Args) < 3 {
		return h.reply(ctx, ev, "Usage: /create <group id> <customer A/B> <amount>")
	}
	amount, err := parseAmount(ev.Args[2])
	if err != nil {
		return err
	}
	returning := len(ev.Args) > 3 && strings.EqualFold(ev.Args[3], "old")

	result, err := h.operations.CreateOrder(ctx, opsdomain.CreateOrderRequest{
		ChatID:          ev.ChatID,
		GroupID:         ev.Args[0],
		Customer:        strings.ToUpper(ev.Args[1]),
		Amount:          amount,
		ReturningClient: returning,
	})
	if err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf(
		"Order created. Group %s, customer %s, amount %s.",
		result.Order.GroupID, result.Order.Customer, result.Order.Amount.StringFixed(2)))
}

// OrderAction handles the order state buttons.
func (h *Handlers) OrderAction(ctx context.Context, ev Event) error {
	action := strings.TrimPrefix(ev.CallbackData, "order_action_")
	switch action {
	case "normal":
		if _, err := h.operations.MarkNormal(ctx, ev.ChatID); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Order is back to normal.")
	case "overdue":
		if _, err := h.operations.MarkOverdue(ctx, ev.ChatID); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Order marked overdue.")
	case "end":
		result, err := h.operations.CompleteOrder(ctx, ev.ChatID)
		if err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf(
			"Order completed. Recovered %s.", result.Order.Amount.StringFixed(2)))
	case "breach":
		if _, err := h.operations.MarkBreach(ctx, ev.ChatID); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Order marked as breach.")
	case "breach_end":
		return h.promptBreachAmount(ctx, ev)
	default:
		h.log.Debug("unknown order action", zap.String("action", action))
		return nil
	}
}

// BreachEndCommand handles `/breach_end [amount]`: inline amount settles
// immediately, otherwise the operator is prompted.
func (h *Handlers) BreachEndCommand(ctx context.Context, ev Event) error {
	if len(ev.Args) == 0 {
		return h.promptBreachAmount(ctx, ev)
	}
	amount, err := parseAmount(ev.Args[0])
	if err != nil {
		return err
	}
	return h.settleBreach(ctx, ev, amount)
}

func (h *Handlers) promptBreachAmount(ctx context.Context, ev Event) error {
	if err := h.sessions.Set(ctx, ev.OperatorID, session.AwaitingBreachAmount{ChatID: ev.ChatID}); err != nil {
		return err
	}
	return h.reply(ctx, ev, "Enter the settlement amount (or 'cancel').")
}

func (h *Handlers) settleBreach(ctx context.Context, ev Event, amount decimal.Decimal) error {
	result, err := h.operations.SettleBreach(ctx, ev.ChatID, amount)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf(
		"Breach settled with %s.", result.Settled.StringFixed(2)))
}

// OrderStatus handles `/status` in a group.
func (h *Handlers) OrderStatus(ctx context.Context, ev Event) error {
	order, err := h.orders.GetByChatID(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf(
		"Group %s, customer %s, amount %s, state %s, since %s.",
		order.GroupID,
		order.Customer,
		order.Amount.StringFixed(2),
		order.State,
		order.OrderDate.Format("2006-01-02"),
	))
}

// Totals handles `/totals` in a private chat.
func (h *Handlers) Totals(ctx context.Context, ev Event) error {
	totals, err := h.ledger.Totals(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf(
		"Valid: %s (%d orders)\nCompleted: %s (%d)\nBreach: %s (%d)\nBreach settled: %s (%d)\nInterest: %s\nLiquid funds: %s",
		totals.ValidAmount.StringFixed(2), totals.ValidOrders,
		totals.CompletedAmount.StringFixed(2), totals.CompletedOrders,
		totals.BreachAmount.StringFixed(2), totals.BreachOrders,
		totals.BreachEndAmount.StringFixed(2), totals.BreachEndOrders,
		totals.Interest.StringFixed(2),
		totals.LiquidFunds.StringFixed(2),
	))
}

// ScheduleCommand lists the slots; per-slot editing goes through buttons.
func (h *Handlers) ScheduleCommand(ctx context.Context, ev Event) error {
	slots, err := h.broadcasts.List(ctx)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return h.reply(ctx, ev, "No broadcast slots configured.")
	}
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		status := "off"
		if slot.IsActive {
			status = "on"
		}
		lines = append(lines, fmt.Sprintf("Slot %d: %s [%s] %s", slot.Slot, slot.SendTime, status, slot.ChatTitle))
	}
	return h.reply(ctx, ev, strings.Join(lines, "\n"))
}

// ScheduleCallback handles schedule_set_N, schedule_toggle_N, schedule_delete_N.
func (h *Handlers) ScheduleCallback(ctx context.Context, ev Event) error {
	data := strings.TrimPrefix(ev.CallbackData, "schedule_")
	action, slotText, ok := strings.Cut(data, "_")
	if !ok {
		return nil
	}
	slot, err := strconv.Atoi(slotText)
	if err != nil {
		return broadcastdomain.ErrSlotOutOfRange
	}

	switch action {
	case "set":
		if err := h.sessions.Set(ctx, ev.OperatorID, session.AwaitingBroadcastField{Slot: slot, Field: "time"}); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Slot %d: enter the send time, HH or HH:MM (or 'cancel').", slot))
	case "toggle":
		current, err := h.broadcasts.Get(ctx, slot)
		if err != nil {
			return err
		}
		updated, err := h.broadcasts.SetActive(ctx, slot, !current.IsActive)
		if err != nil {
			return err
		}
		if updated.IsActive {
			return h.reply(ctx, ev, fmt.Sprintf("Slot %d enabled.", slot))
		}
		return h.reply(ctx, ev, fmt.Sprintf("Slot %d disabled.", slot))
	case "delete":
		if err := h.broadcasts.Delete(ctx, slot); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Slot %d cleared.", slot))
	default:
		return nil
	}
}

// ListAccounts handles `/accounts`.
func (h *Handlers) ListAccounts(ctx context.Context, ev Event) error {
	accounts, err := h.accounts.List(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return h.reply(ctx, ev, "No payment accounts on file.")
	}
	lines := make([]string, 0, len(accounts))
	for _, a := range accounts {
		lines = append(lines, fmt.Sprintf("%s %s (%s): %s",
			a.AccountType, a.AccountNumber, a.AccountName, a.Balance.StringFixed(2)))
	}
	return h.reply(ctx, ev, strings.Join(lines, "\n"))
}

// GrantOperator handles `/grant <operator_id>`. Only admins may grant.
func (h *Handlers) GrantOperator(ctx context.Context, ev Event) error {
	operatorID, err := parseOperatorArg(ev)
	if err != nil {
		return h.reply(ctx, ev, "Usage: /grant <operator id>")
	}
	if err := h.auth.Grant(ctx, ev.OperatorID, operatorID); err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf("Operator %d granted.", operatorID))
}

// RevokeOperator handles `/revoke <operator_id>`.
func (h *Handlers) RevokeOperator(ctx context.Context, ev Event) error {
	operatorID, err := parseOperatorArg(ev)
	if err != nil {
		return h.reply(ctx, ev, "Usage: /revoke <operator id>")
	}
	if err := h.auth.Revoke(ctx, ev.OperatorID, operatorID); err != nil {
		return err
	}
	return h.reply(ctx, ev, fmt.Sprintf("Operator %d revoked.", operatorID))
}

func parseOperatorArg(ev Event) (int64, error) {
	if len(ev.Args) != 1 {
		return 0, fmt.Errorf("expected one operator id, got %d args", len(ev.Args))
	}
	return strconv.ParseInt(ev.Args[0], 10, 64)
}

// PaymentCallback handles payment_add_<type> and payment_edit_<id>.
func (h *Handlers) PaymentCallback(ctx context.Context, ev Event) error {
	data := strings.TrimPrefix(ev.CallbackData, "payment_")
	action, arg, ok := strings.Cut(data, "_")
	if !ok {
		return nil
	}

	switch action {
	case "add":
		accountType := accountdomain.Type(arg)
		if !accountType.Valid() {
			return accountdomain.ErrInvalidType
		}
		state := session.AwaitingAccountInput{Mode: "create", AccountType: arg}
		if err := h.sessions.Set(ctx, ev.OperatorID, state); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Enter '<number> <name>' for the new account (or 'cancel').")
	case "edit":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return accountdomain.ErrNotFound
		}
		if _, err := h.accounts.GetByID(ctx, snowflake.ID(id)); err != nil {
			return err
		}
		state := session.AwaitingAccountInput{Mode: "edit", AccountID: snowflake.ID(id)}
		if err := h.sessions.Set(ctx, ev.OperatorID, state); err != nil {
			return err
		}
		return h.reply(ctx, ev, "Enter '<number> <name>', a bare balance, or 'delete' (or 'cancel').")
	default:
		return nil
	}
}

// FreeText resolves the operator's session first, then the `+amount`
// shortcuts. Unrelated chatter falls through untouched.
func (h *Handlers) FreeText(ctx context.Context, ev Event) error {
	text := strings.TrimSpace(ev.Text)

	state, err := h.sessions.Get(ctx, ev.OperatorID)
	if err != nil {
		return err
	}

	if _, idle := state.(session.Idle); !idle {
		if strings.EqualFold(text, "cancel") {
			if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
				return err
			}
			return h.reply(ctx, ev, "Cancelled.")
		}
		return h.continueDialogue(ctx, ev, state, text)
	}

	if strings.HasPrefix(text, "+") && ev.ChatType == ChatGroup {
		return h.amountShortcut(ctx, ev, strings.TrimSpace(text[1:]))
	}
	return nil
}

// amountShortcut handles `+1000` (interest) and `+1000b` (principal
// reduction).
func (h *Handlers) amountShortcut(ctx context.Context, ev Event, body string) error {
	if body == "" {
		return h.reply(ctx, ev, "Usage: +1000 for interest, +1000b for principal reduction.")
	}

	if strings.HasSuffix(body, "b") {
		amount, err := parseAmount(strings.TrimSuffix(body, "b"))
		if err != nil {
			return err
		}
		result, err := h.operations.ReducePrincipal(ctx, ev.ChatID, amount)
		if err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf(
			"Principal reduced by %s. Remaining: %s.",
			result.Settled.StringFixed(2), result.Order.Amount.StringFixed(2)))
	}

	amount, err := parseAmount(body)
	if err != nil {
		return err
	}
	if err := h.operations.RecordInterest(ctx, ev.ChatID, amount); err != nil {
		return err
	}
	return h.reply(ctx, ev, "Interest recorded.")
}

func (h *Handlers) continueDialogue(ctx context.Context, ev Event, state session.State, text string) error {
	switch s := state.(type) {
	case session.AwaitingBreachAmount:
		amount, err := parseAmount(text)
		if err != nil {
			return err
		}
		if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
			return err
		}
		settleEv := ev
		settleEv.ChatID = s.ChatID
		return h.settleBreach(ctx, settleEv, amount)

	case session.AwaitingBroadcastField:
		return h.broadcastDialogue(ctx, ev, s, text)

	case session.AwaitingAccountInput:
		return h.accountDialogue(ctx, ev, s, text)

	default:
		return h.sessions.Clear(ctx, ev.OperatorID)
	}
}

// broadcastDialogue walks slot configuration field by field: time, then
// destination chat, then message. A numeric destination is taken as a
// chat id; anything else is stored as a group title with no id.
func (h *Handlers) broadcastDialogue(ctx context.Context, ev Event, s session.AwaitingBroadcastField, text string) error {
	switch s.Field {
	case "time":
		canonical, err := broadcastdomain.NormalizeTime(text)
		if err != nil {
			return err
		}
		next := session.AwaitingBroadcastField{Slot: s.Slot, Field: "chat", Time: canonical}
		if err := h.sessions.Set(ctx, ev.OperatorID, next); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Slot %d at %s: now enter the destination chat id or group title.", s.Slot, canonical))
	case "chat":
		destination := strings.TrimSpace(text)
		if destination == "" {
			return h.reply(ctx, ev, "Enter a numeric chat id or a group title.")
		}
		next := session.AwaitingBroadcastField{Slot: s.Slot, Field: "message", Time: s.Time, ChatTitle: destination}
		if id, err := strconv.ParseInt(destination, 10, 64); err == nil {
			next.ChatID = &id
		}
		if err := h.sessions.Set(ctx, ev.OperatorID, next); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Destination set to %s: now enter the message.", destination))
	case "message":
		if _, err := h.broadcasts.Configure(ctx, broadcastdomain.ConfigureRequest{
			Slot:      s.Slot,
			Time:      s.Time,
			ChatID:    s.ChatID,
			ChatTitle: s.ChatTitle,
			Message:   text,
		}); err != nil {
			return err
		}
		if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Slot %d configured for %s daily.", s.Slot, s.Time))
	default:
		return h.sessions.Clear(ctx, ev.OperatorID)
	}
}

// accountDialogue consumes the single input line of the account flows.
func (h *Handlers) accountDialogue(ctx context.Context, ev Event, s session.AwaitingAccountInput, text string) error {
	switch s.Mode {
	case "create":
		number, name, ok := strings.Cut(text, " ")
		if !ok {
			return h.reply(ctx, ev, "Enter '<number> <name>', e.g. '0917-000-0001 Ana'.")
		}
		account, err := h.accounts.Create(ctx, accountdomain.CreateRequest{
			AccountType:   accountdomain.Type(s.AccountType),
			AccountNumber: strings.TrimSpace(number),
			AccountName:   strings.TrimSpace(name),
		})
		if err != nil {
			return err
		}
		if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Account %s %s added.", account.AccountType, account.AccountNumber))

	case "edit":
		if strings.EqualFold(text, "delete") {
			if err := h.accounts.Delete(ctx, s.AccountID); err != nil {
				return err
			}
			if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
				return err
			}
			return h.reply(ctx, ev, "Account removed.")
		}

		// A bare number is a direct balance overwrite; a pair is a
		// number/name update.
		if number, name, ok := strings.Cut(text, " "); ok {
			number = strings.TrimSpace(number)
			name = strings.TrimSpace(name)
			if _, err := h.accounts.Update(ctx, s.AccountID, accountdomain.UpdatePatch{
				AccountNumber: &number,
				AccountName:   &name,
			}); err != nil {
				return err
			}
			if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
				return err
			}
			return h.reply(ctx, ev, "Account updated.")
		}

		balance, err := parseAmount(text)
		if err != nil {
			return err
		}
		account, err := h.accounts.SetBalance(ctx, s.AccountID, balance)
		if err != nil {
			return err
		}
		if err := h.sessions.Clear(ctx, ev.OperatorID); err != nil {
			return err
		}
		return h.reply(ctx, ev, fmt.Sprintf("Balance set to %s.", account.Balance.StringFixed(2)))

	default:
		return h.sessions.Clear(ctx, ev.OperatorID)
	}
}

func (h *Handlers) reply(ctx context.Context, ev Event, text string) error {
	if err := h.sender.Reply(ctx, ev.ChatID, text); err != nil {
		h.log.Warn("reply delivery failed",
			zap.Int64("chat_id", ev.ChatID),
			zap.Error(err),
		)
	}
	return nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, orderdomain.ErrInvalidAmount
	}
	return amount, nil
}
