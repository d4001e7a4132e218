package okx

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
	"github.com/Lqz13Th/extrema-infra/taskexec"
)

func init() {
	taskexec.RegisterFrame(market.Okx, market.ChannelTrades, decodeTrades)
	taskexec.RegisterFrame(market.Okx, market.ChannelAccountOrders, decodeAccountOrders)
	taskexec.RegisterFrame(market.Okx, market.ChannelAccountBalAndPos, decodeBalAndPos)
}

// wsEnvelope is the common v5 data frame shape.
type wsEnvelope struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data json.RawMessage `json:"data"`
	// Event frames (subscribe confirms, login results, errors).
	Event string `json:"event"`
	Code  string `json:"code"`
	Msg   string `json:"msg"`
}

// unwrap splits a frame into its data rows. Event frames (subscribe,
// login, error) carry no rows; an error event surfaces as an error.
func unwrap(payload []byte) (json.RawMessage, error) {
	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode frame envelope: %w", err)
	}
	if env.Event != "" {
		if env.Event == "error" {
			return nil, &market.APIError{Venue: market.Okx, Code: env.Code, Msg: env.Msg}
		}
		return nil, nil
	}
	return env.Data, nil
}

// wsTrade is one row of the trades channel.
type wsTrade struct {
	InstID  string `json:"instId"`
	TradeID string `json:"tradeId"`
	Px      string `json:"px"`
	Sz      string `json:"sz"`
	Side    string `json:"side"`
	Ts      string `json:"ts"`
}

func (r *wsTrade) toEvent() event.Trade {
	return event.Trade{
		Timestamp: market.ToMicros(parseUint(r.Ts)),
		Venue:     market.Okx,
		Inst:      InstToCanonical(r.InstID),
		Price:     parseFloat(r.Px),
		Size:      parseFloat(r.Sz),
		Side:      parseSide(r.Side),
		TradeID:   parseUint(r.TradeID),
	}
}

func decodeTrades(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.Trade()
	if t == nil {
		return fmt.Errorf("no trade topic registered")
	}

	data, err := unwrap(payload)
	if err != nil || data == nil {
		return err
	}

	var rows []wsTrade
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode trades rows: %w", err)
	}

	trades := make([]event.Trade, 0, len(rows))
	for i := range rows {
		trades = append(trades, rows[i].toEvent())
	}
	t.Publish(bus.Envelope[[]event.Trade]{TaskID: taskID, Data: trades})
	return nil
}

// wsOrder is one row of the orders channel.
type wsOrder struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	Px       string `json:"px"`
	Sz       string `json:"sz"`
	AccFill  string `json:"accFillSz"`
	Side     string `json:"side"`
	State    string `json:"state"`
	OrdType  string `json:"ordType"`
	ClOrdID  string `json:"clOrdId"`
	UTime    string `json:"uTime"`
}

func (r *wsOrder) toEvent() event.AccountOrder {
	return event.AccountOrder{
		Timestamp:     market.ToMicros(parseUint(r.UTime)),
		Venue:         market.Okx,
		Inst:          InstToCanonical(r.InstID),
		InstType:      parseInstType(r.InstType),
		Price:         parseFloat(r.Px),
		Size:          parseFloat(r.Sz),
		FilledSize:    parseFloat(r.AccFill),
		Side:          parseSide(r.Side),
		Status:        parseOrderState(r.State),
		OrderType:     parseOrderType(r.OrdType),
		ClientOrderID: r.ClOrdID,
	}
}

func decodeAccountOrders(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.AccountOrder()
	if t == nil {
		return fmt.Errorf("no account_order topic registered")
	}

	data, err := unwrap(payload)
	if err != nil || data == nil {
		return err
	}

	var rows []wsOrder
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode orders rows: %w", err)
	}

	orders := make([]event.AccountOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, rows[i].toEvent())
	}
	t.Publish(bus.Envelope[[]event.AccountOrder]{TaskID: taskID, Data: orders})
	return nil
}

// wsBalAndPos is one row of the balance_and_position channel.
type wsBalAndPos struct {
	PTime     string `json:"pTime"`
	EventType string `json:"eventType"`
	BalData   []struct {
		Ccy     string `json:"ccy"`
		CashBal string `json:"cashBal"`
	} `json:"balData"`
	PosData []struct {
		InstID   string `json:"instId"`
		InstType string `json:"instType"`
		MgnMode  string `json:"mgnMode"`
		PosSide  string `json:"posSide"`
		Pos      string `json:"pos"`
		AvgPx    string `json:"avgPx"`
	} `json:"posData"`
}

func (r *wsBalAndPos) toEvent() event.AccountBalPos {
	balances := make([]event.AccountBalance, 0, len(r.BalData))
	for _, b := range r.BalData {
		balances = append(balances, event.AccountBalance{
			Inst:    b.Ccy,
			Balance: parseFloat(b.CashBal),
		})
	}

	positions := make([]event.AccountPosition, 0, len(r.PosData))
	for _, p := range r.PosData {
		positions = append(positions, event.AccountPosition{
			Inst:         InstToCanonical(p.InstID),
			InstType:     parseInstType(p.InstType),
			AvgPrice:     parseFloat(p.AvgPx),
			Size:         parseFloat(p.Pos),
			PositionSide: parsePosSide(p.PosSide),
			MarginMode:   parseMgnMode(p.MgnMode),
		})
	}

	return event.AccountBalPos{
		Timestamp: market.ToMicros(parseUint(r.PTime)),
		Venue:     market.Okx,
		Event:     r.EventType,
		Balances:  balances,
		Positions: positions,
	}
}

func decodeBalAndPos(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.AccountBalPos()
	if t == nil {
		return fmt.Errorf("no account_bal_pos topic registered")
	}

	data, err := unwrap(payload)
	if err != nil || data == nil {
		return err
	}

	var rows []wsBalAndPos
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode balance_and_position rows: %w", err)
	}

	events := make([]event.AccountBalPos, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toEvent())
	}
	t.Publish(bus.Envelope[[]event.AccountBalPos]{TaskID: taskID, Data: events})
	return nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseUint(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}

func parseSide(s string) market.OrderSide {
	switch s {
	case "buy":
		return market.Buy
	case "sell":
		return market.Sell
	default:
		return market.SideUnknown
	}
}

func parseInstType(s string) market.InstrumentType {
	switch s {
	case "SWAP":
		return market.Perpetual
	case "FUTURES":
		return market.Futures
	case "SPOT":
		return market.Spot
	case "OPTION":
		return market.Options
	default:
		return market.InstTypeUnknown
	}
}

func parseOrderState(s string) market.OrderStatus {
	switch s {
	case "live":
		return market.OrderLive
	case "partially_filled":
		return market.OrderPartiallyFilled
	case "filled":
		return market.OrderFilled
	case "canceled":
		return market.OrderCanceled
	default:
		return market.OrderStatusUnknown
	}
}

func parseOrderType(s string) market.OrderType {
	switch s {
	case "market":
		return market.Market
	case "limit":
		return market.Limit
	case "post_only":
		return market.PostOnly
	case "fok":
		return market.Fok
	case "ioc":
		return market.Ioc
	default:
		return market.OrderTypeUnknown
	}
}

func parsePosSide(s string) market.PositionSide {
	switch s {
	case "long":
		return market.Long
	case "short":
		return market.Short
	case "net":
		return market.Both
	default:
		return market.PosSideUnknown
	}
}

func parseMgnMode(s string) market.MarginMode {
	switch s {
	case "cross":
		return market.Cross
	case "isolated":
		return market.Isolated
	default:
		return market.MarginModeUnknown
	}
}
