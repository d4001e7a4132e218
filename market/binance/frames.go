package binance

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
	taskexec.RegisterFrame(market.BinanceUmFutures, market.ChannelTrades, decodeAggTrades)
	taskexec.RegisterFrame(market.BinanceUmFutures, market.ChannelCandles, decodeCandles)
	taskexec.RegisterFrame(market.BinanceUmFutures, market.ChannelAccountBalAndPos, decodeAccountUpdate)
	taskexec.RegisterFrame(market.BinanceUmFutures, market.ChannelAccountOrders, decodeOrderUpdate)
}

// subscribeResponse is the reply frame to a SUBSCRIBE request.
type subscribeResponse struct {
	Result *string `json:"result"`
	ID     uint32  `json:"id"`
	Error  *struct {
		Code int64  `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

// isHousekeeping consumes subscription confirms and error frames,
// reporting true when the payload was one of them.
func isHousekeeping(payload []byte) (bool, error) {
	if len(payload) == 0 {
		return true, nil
	}
	if payload[0] == '[' {
		return false, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false, err
	}
	if _, hasEvent := probe["e"]; hasEvent {
		return false, nil
	}
	var resp subscribeResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return false, err
	}
	if resp.Error != nil {
		return true, &market.APIError{
			Venue: market.BinanceUmFutures,
			Code:  strconv.FormatInt(resp.Error.Code, 10),
			Msg:   resp.Error.Msg,
		}
	}
	return true, nil
}

// wsAggTrade is the aggTrade stream frame.
type wsAggTrade struct {
	EventType string `json:"e"`
	EventTime uint64 `json:"E"`
	AggID     uint64 `json:"a"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime uint64 `json:"T"`
	Maker     bool   `json:"m"` // buyer is the market maker
}

func (f *wsAggTrade) toEvent() event.Trade {
	side := market.Buy
	if f.Maker {
		side = market.Sell
	}
	return event.Trade{
		Timestamp: market.ToMicros(f.TradeTime),
		Venue:     market.BinanceUmFutures,
		Inst:      InstToCanonical(f.Symbol),
		Price:     parseFloat(f.Price),
		Size:      parseFloat(f.Quantity),
		Side:      side,
		TradeID:   f.AggID,
	}
}

func decodeAggTrades(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.Trade()
	if t == nil {
		return fmt.Errorf("no trade topic registered")
	}

	var frames []wsAggTrade
	res, err := decodeFrames(payload, &frames)
	if err != nil || res == skip {
		return err
	}

	trades := make([]event.Trade, 0, len(frames))
	for i := range frames {
		trades = append(trades, frames[i].toEvent())
	}
	t.Publish(bus.Envelope[[]event.Trade]{TaskID: taskID, Data: trades})
	return nil
}

// wsKline is the kline stream frame.
type wsKline struct {
	Symbol string `json:"s"`
	Kline  struct {
		StartTime uint64 `json:"t"`
		Interval  string `json:"i"`
		Open      string `json:"o"`
		Close     string `json:"c"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Volume    string `json:"v"`
		Closed    bool   `json:"x"`
	} `json:"k"`
}

func (f *wsKline) toEvent() event.Candle {
	return event.Candle{
		Timestamp: market.ToMicros(f.Kline.StartTime),
		Venue:     market.BinanceUmFutures,
		Inst:      InstToCanonical(f.Symbol),
		Interval:  market.ParseCandleInterval(f.Kline.Interval),
		Open:      parseFloat(f.Kline.Open),
		High:      parseFloat(f.Kline.High),
		Low:       parseFloat(f.Kline.Low),
		Close:     parseFloat(f.Kline.Close),
		Volume:    parseFloat(f.Kline.Volume),
		Confirm:   f.Kline.Closed,
	}
}

func decodeCandles(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.Candle()
	if t == nil {
		return fmt.Errorf("no candle topic registered")
	}

	var frames []wsKline
	res, err := decodeFrames(payload, &frames)
	if err != nil || res == skip {
		return err
	}

	candles := make([]event.Candle, 0, len(frames))
	for i := range frames {
		candles = append(candles, frames[i].toEvent())
	}
	t.Publish(bus.Envelope[[]event.Candle]{TaskID: taskID, Data: candles})
	return nil
}

// wsAccountUpdate is the ACCOUNT_UPDATE user-data frame.
type wsAccountUpdate struct {
	EventType string `json:"e"`
	EventTime uint64 `json:"E"`
	Update    struct {
		Reason    string `json:"m"`
		Balances  []struct {
			Asset         string `json:"a"`
			WalletBalance string `json:"wb"`
		} `json:"B"`
		Positions []struct {
			Symbol       string `json:"s"`
			Amount       string `json:"pa"`
			EntryPrice   string `json:"ep"`
			MarginType   string `json:"mt"`
			PositionSide string `json:"ps"`
		} `json:"P"`
	} `json:"a"`
}

func (f *wsAccountUpdate) toEvent() event.AccountBalPos {
	balances := make([]event.AccountBalance, 0, len(f.Update.Balances))
	for _, b := range f.Update.Balances {
		balances = append(balances, event.AccountBalance{
			Inst:    b.Asset,
			Balance: parseFloat(b.WalletBalance),
		})
	}

	positions := make([]event.AccountPosition, 0, len(f.Update.Positions))
	for _, p := range f.Update.Positions {
		instType := market.Perpetual
		if containsExpiry(p.Symbol) {
			instType = market.Futures
		}
		positions = append(positions, event.AccountPosition{
			Inst:         InstToCanonical(p.Symbol),
			InstType:     instType,
			AvgPrice:     parseFloat(p.EntryPrice),
			Size:         parseFloat(p.Amount),
			PositionSide: parsePositionSide(p.PositionSide),
			MarginMode:   parseMarginMode(p.MarginType),
		})
	}

	return event.AccountBalPos{
		Timestamp: market.ToMicros(f.EventTime),
		Venue:     market.BinanceUmFutures,
		Event:     f.Update.Reason,
		Balances:  balances,
		Positions: positions,
	}
}

func decodeAccountUpdate(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.AccountBalPos()
	if t == nil {
		return fmt.Errorf("no account_bal_pos topic registered")
	}

	housekeeping, err := isHousekeeping(payload)
	if housekeeping || err != nil {
		return err
	}

	var frame wsAccountUpdate
	if err := json.Unmarshal(payload, &frame); err != nil {
		return fmt.Errorf("decode ACCOUNT_UPDATE: %w", err)
	}
	if frame.EventType != "ACCOUNT_UPDATE" {
		// Other user-data events share the stream; not ours.
		return nil
	}
	t.Publish(bus.Envelope[[]event.AccountBalPos]{
		TaskID: taskID,
		Data:   []event.AccountBalPos{frame.toEvent()},
	})
	return nil
}

// wsOrderUpdate is the ORDER_TRADE_UPDATE user-data frame.
type wsOrderUpdate struct {
	EventType string `json:"e"`
	EventTime uint64 `json:"E"`
	Order     struct {
		Symbol        string `json:"s"`
		ClientOrderID string `json:"c"`
		Side          string `json:"S"`
		OrderType     string `json:"o"`
		Quantity      string `json:"q"`
		Price         string `json:"p"`
		Status        string `json:"X"`
		FilledQty     string `json:"z"`
		TradeTime     uint64 `json:"T"`
	} `json:"o"`
}

func (f *wsOrderUpdate) toEvent() event.AccountOrder {
	return event.AccountOrder{
		Timestamp:     market.ToMicros(f.EventTime),
		Venue:         market.BinanceUmFutures,
		Inst:          InstToCanonical(f.Order.Symbol),
		InstType:      market.Perpetual,
		Price:         parseFloat(f.Order.Price),
		Size:          parseFloat(f.Order.Quantity),
		FilledSize:    parseFloat(f.Order.FilledQty),
		Side:          parseSide(f.Order.Side),
		Status:        parseOrderStatus(f.Order.Status),
		OrderType:     parseOrderType(f.Order.OrderType),
		ClientOrderID: f.Order.ClientOrderID,
	}
}

func decodeOrderUpdate(taskID uint64, b *bus.Bus, payload []byte) error {
	t := b.AccountOrder()
	if t == nil {
		return fmt.Errorf("no account_order topic registered")
	}

	housekeeping, err := isHousekeeping(payload)
	if housekeeping || err != nil {
		return err
	}

	var frame wsOrderUpdate
	if err := json.Unmarshal(payload, &frame); err != nil {
		return fmt.Errorf("decode ORDER_TRADE_UPDATE: %w", err)
	}
	if frame.EventType != "ORDER_TRADE_UPDATE" {
		return nil
	}
	t.Publish(bus.Envelope[[]event.AccountOrder]{
		TaskID: taskID,
		Data:   []event.AccountOrder{frame.toEvent()},
	})
	return nil
}

type decodeResult int

const (
	decoded decodeResult = iota
	skip
)

// decodeFrames accepts either a single frame object, a batch array, or a
// housekeeping frame, filling out with the decoded frames. Housekeeping
// yields skip.
func decodeFrames[T any](payload []byte, out *[]T) (decodeResult, error) {
	if len(payload) > 0 && payload[0] == '[' {
		if err := json.Unmarshal(payload, out); err != nil {
			return skip, fmt.Errorf("decode frame batch: %w", err)
		}
		return decoded, nil
	}

	housekeeping, err := isHousekeeping(payload)
	if housekeeping || err != nil {
		return skip, err
	}

	var single T
	if err := json.Unmarshal(payload, &single); err != nil {
		return skip, fmt.Errorf("decode frame: %w", err)
	}
	*out = append(*out, single)
	return decoded, nil
}

func containsExpiry(symbol string) bool {
	for i := range symbol {
		if symbol[i] == '_' {
			return true
		}
	}
	return false
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseSide(s string) market.OrderSide {
	switch s {
	case "BUY":
		return market.Buy
	case "SELL":
		return market.Sell
	default:
		return market.SideUnknown
	}
}

func parseOrderStatus(s string) market.OrderStatus {
	switch s {
	case "NEW":
		return market.OrderLive
	case "PARTIALLY_FILLED":
		return market.OrderPartiallyFilled
	case "FILLED":
		return market.OrderFilled
	case "CANCELED":
		return market.OrderCanceled
	case "EXPIRED":
		return market.OrderExpired
	case "REJECTED":
		return market.OrderRejected
	default:
		return market.OrderStatusUnknown
	}
}

func parseOrderType(s string) market.OrderType {
	switch s {
	case "MARKET":
		return market.Market
	case "LIMIT":
		return market.Limit
	default:
		return market.OrderTypeUnknown
	}
}

func parsePositionSide(s string) market.PositionSide {
	switch s {
	case "LONG":
		return market.Long
	case "SHORT":
		return market.Short
	case "BOTH":
		return market.Both
	default:
		return market.PosSideUnknown
	}
}

func parseMarginMode(s string) market.MarginMode {
	switch s {
	case "cross", "CROSS":
		return market.Cross
	case "isolated", "ISOLATED":
		return market.Isolated
	default:
		return market.MarginModeUnknown
	}
}
