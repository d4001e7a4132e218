package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/Lqz13Th/extrema-infra/market"
)

// Client is the OKX v5 client. Public methods work without credentials;
// signed methods and the WS login need InitAPIKey first.
type Client struct {
	http *resty.Client
	key  *Key
}

// NewClient builds a client against the production endpoints.
func NewClient() *Client {
	return &Client{
		http: resty.New().SetBaseURL(BaseURL),
	}
}

// InitAPIKey loads credentials from the environment.
func (c *Client) InitAPIKey() error {
	key, err := ReadEnvKey()
	if err != nil {
		return fmt.Errorf("okx client: %w", err)
	}
	c.key = key
	return nil
}

// PublicConnectURL implements market.CexWebsocket. All-trades and a few
// business-grade channels live on the business endpoint.
func (c *Client) PublicConnectURL(channel market.WsChannel) (string, error) {
	switch channel.Kind {
	case market.ChannelTrades:
		if channel.Trades == market.AllTrades {
			return WsBusinessURL, nil
		}
		return WsPublicURL, nil
	case market.ChannelCandles, market.ChannelTick, market.ChannelLob:
		return WsPublicURL, nil
	case market.ChannelOther:
		if channel.Other == "instruments" || channel.Other == "funding-rate" {
			return WsBusinessURL, nil
		}
		return "", fmt.Errorf("okx %s: %w", channel, market.ErrUnimplemented)
	default:
		return "", fmt.Errorf("okx %s: %w", channel, market.ErrUnimplemented)
	}
}

// PrivateConnectURL implements market.CexWebsocket; authentication
// happens in-band via WsLoginMsg after connect.
func (c *Client) PrivateConnectURL(_ context.Context, _ market.WsChannel) (string, error) {
	return WsPrivateURL, nil
}

// WsLoginMsg builds the signed login frame for the private endpoint.
func (c *Client) WsLoginMsg() (string, error) {
	if c.key == nil {
		return "", market.ErrAPINotInitialized
	}

	ts := WsTimestamp()
	type loginArg struct {
		APIKey     string `json:"apiKey"`
		Passphrase string `json:"passphrase"`
		Timestamp  string `json:"timestamp"`
		Sign       string `json:"sign"`
	}
	payload := struct {
		Op   string     `json:"op"`
		Args []loginArg `json:"args"`
	}{
		Op: "login",
		Args: []loginArg{{
			APIKey:     c.key.APIKey,
			Passphrase: c.key.Passphrase,
			Timestamp:  ts,
			Sign:       c.key.Sign(ts + wsLoginPath),
		}},
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("okx login payload: %w", err)
	}
	return string(out), nil
}

type wsArg map[string]string

type wsOp struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

// PublicSubscribeMsg builds the subscription payload for a public
// channel over the given canonical instruments.
func (c *Client) PublicSubscribeMsg(channel market.WsChannel, insts []string) (string, error) {
	var name string
	switch channel.Kind {
	case market.ChannelTrades:
		name = "trades"
		if channel.Trades == market.AllTrades {
			name = "trades-all"
		}
	case market.ChannelCandles:
		interval := channel.Candle
		if interval == "" {
			interval = market.Candle1m
		}
		name = "candle" + strings.ToUpper(string(interval))
	case market.ChannelLob:
		name = "books"
	default:
		return "", fmt.Errorf("okx %s: %w", channel, market.ErrUnimplemented)
	}

	op := wsOp{Op: "subscribe"}
	for _, inst := range insts {
		op.Args = append(op.Args, wsArg{"channel": name, "instId": CanonicalToInst(inst)})
	}
	out, err := json.Marshal(op)
	if err != nil {
		return "", fmt.Errorf("okx subscribe payload: %w", err)
	}
	return string(out), nil
}

// PrivateSubscribeMsg builds the subscription payload for a private
// channel.
func (c *Client) PrivateSubscribeMsg(channel market.WsChannel) (string, error) {
	op := wsOp{Op: "subscribe"}
	switch channel.Kind {
	case market.ChannelAccountOrders:
		op.Args = append(op.Args, wsArg{"channel": "orders", "instType": "ANY"})
	case market.ChannelAccountPositions:
		op.Args = append(op.Args, wsArg{"channel": "positions", "instType": "ANY"})
	case market.ChannelAccountBalAndPos:
		op.Args = append(op.Args, wsArg{"channel": "balance_and_position"})
	default:
		return "", fmt.Errorf("okx %s: %w", channel, market.ErrUnimplemented)
	}

	out, err := json.Marshal(op)
	if err != nil {
		return "", fmt.Errorf("okx subscribe payload: %w", err)
	}
	return string(out), nil
}

// restResponse is the common v5 REST envelope.
type restResponse[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

// signedRequest performs a signed v5 call and decodes the data rows.
func signedRequest[T any](ctx context.Context, c *Client, method, path, body string) ([]T, error) {
	if c.key == nil {
		return nil, market.ErrAPINotInitialized
	}

	ts := RestTimestamp()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("OK-ACCESS-KEY", c.key.APIKey).
		SetHeader("OK-ACCESS-PASSPHRASE", c.key.Passphrase).
		SetHeader("OK-ACCESS-TIMESTAMP", ts).
		SetHeader("OK-ACCESS-SIGN", c.key.Sign(ts+method+path+body)).
		SetHeader("Content-Type", "application/json")

	var resp *resty.Response
	var err error
	if method == "POST" {
		resp, err = req.SetBody(body).Post(path)
	} else {
		resp, err = req.Get(path)
	}
	if err != nil {
		return nil, fmt.Errorf("okx %s %s: %w", method, path, err)
	}

	var decoded restResponse[T]
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("okx %s %s decode: %w", method, path, err)
	}
	if decoded.Code != "0" {
		return nil, &market.APIError{Venue: market.Okx, Code: decoded.Code, Msg: decoded.Msg}
	}
	if len(decoded.Data) == 0 {
		return nil, market.ErrEmptyResponse
	}
	return decoded.Data, nil
}

type orderRow struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// PlaceOrder submits a signed order built from normalized params.
func (c *Client) PlaceOrder(ctx context.Context, params market.OrderParams) (market.OrderAck, error) {
	body := map[string]string{
		"instId":  CanonicalToInst(params.Inst),
		"tdMode":  "cross",
		"side":    strings.ToLower(string(params.Side)),
		"ordType": orderTypeStr(params.OrderType),
		"sz":      params.Size,
	}
	if params.MarginMode == market.Isolated {
		body["tdMode"] = "isolated"
	}
	if params.Price != "" {
		body["px"] = params.Price
	}
	if params.ReduceOnly {
		body["reduceOnly"] = "true"
	}
	if params.PositionSide != "" && params.PositionSide != market.PosSideUnknown {
		body["posSide"] = string(params.PositionSide)
	}
	if params.ClientOrderID != "" {
		body["clOrdId"] = params.ClientOrderID
	}
	for k, v := range params.Extra {
		body[k] = v
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return market.OrderAck{}, fmt.Errorf("okx order body: %w", err)
	}

	rows, err := signedRequest[orderRow](ctx, c, "POST", TradeOrderPath, string(raw))
	if err != nil {
		return market.OrderAck{}, err
	}
	row := rows[0]
	if row.SCode != "" && row.SCode != "0" {
		return market.OrderAck{}, &market.APIError{Venue: market.Okx, Code: row.SCode, Msg: row.SMsg}
	}
	return market.OrderAck{
		OrderID:       row.OrdID,
		ClientOrderID: row.ClOrdID,
		Status:        market.OrderLive,
	}, nil
}

// CancelOrder cancels by order id or client order id.
func (c *Client) CancelOrder(ctx context.Context, inst, orderID, clientOrderID string) (market.OrderAck, error) {
	body := map[string]string{"instId": CanonicalToInst(inst)}
	if orderID != "" {
		body["ordId"] = orderID
	}
	if clientOrderID != "" {
		body["clOrdId"] = clientOrderID
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return market.OrderAck{}, fmt.Errorf("okx cancel body: %w", err)
	}

	rows, err := signedRequest[orderRow](ctx, c, "POST", TradeCancelOrderPath, string(raw))
	if err != nil {
		return market.OrderAck{}, err
	}
	row := rows[0]
	return market.OrderAck{
		OrderID:       row.OrdID,
		ClientOrderID: row.ClOrdID,
		Status:        market.OrderCanceled,
	}, nil
}

type balanceDetail struct {
	Ccy     string `json:"ccy"`
	CashBal string `json:"cashBal"`
}

type balanceRow struct {
	Details []balanceDetail `json:"details"`
}

// Balance fetches the signed account balance table.
func (c *Client) Balance(ctx context.Context) ([]market.BalanceData, error) {
	rows, err := signedRequest[balanceRow](ctx, c, "GET", AccountBalancePath, "")
	if err != nil {
		return nil, err
	}

	var out []market.BalanceData
	for _, row := range rows {
		for _, d := range row.Details {
			out = append(out, market.BalanceData{Ccy: d.Ccy, Balance: parseFloat(d.CashBal)})
		}
	}
	return out, nil
}

func orderTypeStr(t market.OrderType) string {
	switch t {
	case market.Limit:
		return "limit"
	case market.PostOnly:
		return "post_only"
	case market.Fok:
		return "fok"
	case market.Ioc:
		return "ioc"
	default:
		return "market"
	}
}
