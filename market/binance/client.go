package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/Lqz13Th/extrema-infra/market"
)

// UmClient is the USDⓈ-M futures client. Public methods work without
// credentials; signed methods need InitAPIKey first.
type UmClient struct {
	http *resty.Client
	key  *Key
}

// NewUmClient builds a client against the production futures endpoints.
func NewUmClient() *UmClient {
	return &UmClient{
		http: resty.New().SetBaseURL(UmFuturesBaseURL),
	}
}

// InitAPIKey loads credentials from the environment.
func (c *UmClient) InitAPIKey() error {
	key, err := ReadEnvKey()
	if err != nil {
		return fmt.Errorf("binance um client: %w", err)
	}
	c.key = key
	return nil
}

// PublicConnectURL implements market.CexWebsocket.
func (c *UmClient) PublicConnectURL(_ market.WsChannel) (string, error) {
	return UmFuturesWs, nil
}

// PrivateConnectURL obtains a fresh listen key and appends it to the
// stream URL.
func (c *UmClient) PrivateConnectURL(ctx context.Context, _ market.WsChannel) (string, error) {
	lk, err := c.CreateListenKey(ctx)
	if err != nil {
		return "", err
	}
	return UmFuturesWs + "/" + lk, nil
}

// PublicSubscribeMsg builds a SUBSCRIBE payload for the channel over the
// given canonical instruments.
func (c *UmClient) PublicSubscribeMsg(channel market.WsChannel, insts []string) (string, error) {
	switch channel.Kind {
	case market.ChannelCandles:
		interval := channel.Candle
		if interval == "" {
			interval = market.Candle1m
		}
		return subscribeMsg("kline_"+string(interval), insts), nil
	case market.ChannelTrades:
		return subscribeMsg("aggTrade", insts), nil
	default:
		return "", fmt.Errorf("binance um %s: %w", channel, market.ErrUnimplemented)
	}
}

// PrivateSubscribeMsg implements market.CexWebsocket. The user data
// stream needs no subscription payload; the listen key in the connect URL
// selects it.
func (c *UmClient) PrivateSubscribeMsg(_ market.WsChannel) (string, error) {
	return "", nil
}

func subscribeMsg(param string, insts []string) string {
	params := make([]string, 0, len(insts))
	for _, inst := range insts {
		params = append(params, CanonicalToLower(inst)+"@"+param)
	}
	if len(params) == 0 {
		params = append(params, param)
	}
	payload := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int      `json:"id"`
	}{Method: "SUBSCRIBE", Params: params, ID: 1}
	out, _ := json.Marshal(payload)
	return string(out)
}

type listenKeyResponse struct {
	ListenKey string `json:"listenKey"`
}

// CreateListenKey opens a user data stream and returns its key.
func (c *UmClient) CreateListenKey(ctx context.Context) (string, error) {
	return c.listenKeyRequest(ctx, "POST")
}

// RenewListenKey extends the active user data stream keepalive.
func (c *UmClient) RenewListenKey(ctx context.Context) (string, error) {
	return c.listenKeyRequest(ctx, "PUT")
}

func (c *UmClient) listenKeyRequest(ctx context.Context, method string) (string, error) {
	if c.key == nil {
		return "", market.ErrAPINotInitialized
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.key.APIKey)

	var resp *resty.Response
	var err error
	switch method {
	case "POST":
		resp, err = req.Post(UmFuturesListenKey + "?" + c.key.SignNow(""))
	default:
		resp, err = req.Put(UmFuturesListenKey + "?" + c.key.SignNow(""))
	}
	if err != nil {
		return "", fmt.Errorf("binance listen key %s: %w", method, err)
	}
	if resp.IsError() {
		return "", restError(resp)
	}

	var lk listenKeyResponse
	if err := json.Unmarshal(resp.Body(), &lk); err != nil {
		return "", fmt.Errorf("binance listen key decode: %w", err)
	}
	if lk.ListenKey == "" {
		return "", market.ErrEmptyResponse
	}
	return lk.ListenKey, nil
}

type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
}

// PlaceOrder submits a signed order built from normalized params.
func (c *UmClient) PlaceOrder(ctx context.Context, params market.OrderParams) (market.OrderAck, error) {
	if c.key == nil {
		return market.OrderAck{}, market.ErrAPINotInitialized
	}

	query := orderQuery(params)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.key.APIKey).
		Post(UmFuturesOrder + "?" + c.key.SignNow(query))
	if err != nil {
		return market.OrderAck{}, fmt.Errorf("binance place order: %w", err)
	}
	if resp.IsError() {
		return market.OrderAck{}, restError(resp)
	}

	var order orderResponse
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return market.OrderAck{}, fmt.Errorf("binance place order decode: %w", err)
	}
	return market.OrderAck{
		OrderID:       fmt.Sprintf("%d", order.OrderID),
		ClientOrderID: order.ClientOrderID,
		Status:        parseOrderStatus(order.Status),
	}, nil
}

// CancelOrder cancels by order id or client order id.
func (c *UmClient) CancelOrder(ctx context.Context, inst, orderID, clientOrderID string) (market.OrderAck, error) {
	if c.key == nil {
		return market.OrderAck{}, market.ErrAPINotInitialized
	}

	query := "symbol=" + CanonicalToUpper(inst)
	switch {
	case orderID != "":
		query += "&orderId=" + orderID
	case clientOrderID != "":
		query += "&origClientOrderId=" + clientOrderID
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.key.APIKey).
		Delete(UmFuturesOrder + "?" + c.key.SignNow(query))
	if err != nil {
		return market.OrderAck{}, fmt.Errorf("binance cancel order: %w", err)
	}
	if resp.IsError() {
		return market.OrderAck{}, restError(resp)
	}

	var order orderResponse
	if err := json.Unmarshal(resp.Body(), &order); err != nil {
		return market.OrderAck{}, fmt.Errorf("binance cancel order decode: %w", err)
	}
	return market.OrderAck{
		OrderID:       fmt.Sprintf("%d", order.OrderID),
		ClientOrderID: order.ClientOrderID,
		Status:        parseOrderStatus(order.Status),
	}, nil
}

type balanceRow struct {
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

// Balance fetches the signed futures balance table.
func (c *UmClient) Balance(ctx context.Context) ([]market.BalanceData, error) {
	if c.key == nil {
		return nil, market.ErrAPINotInitialized
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.key.APIKey).
		Get(UmFuturesBalanceInfo + "?" + c.key.SignNow(""))
	if err != nil {
		return nil, fmt.Errorf("binance balance: %w", err)
	}
	if resp.IsError() {
		return nil, restError(resp)
	}

	var rows []balanceRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("binance balance decode: %w", err)
	}
	out := make([]market.BalanceData, 0, len(rows))
	for _, r := range rows {
		out = append(out, market.BalanceData{Ccy: r.Asset, Balance: parseFloat(r.Balance)})
	}
	return out, nil
}

// orderQuery renders normalized order params as a Binance query string.
func orderQuery(p market.OrderParams) string {
	var sb strings.Builder
	sb.WriteString("symbol=" + CanonicalToUpper(p.Inst))
	sb.WriteString("&side=" + string(p.Side))

	switch p.OrderType {
	case market.Limit:
		sb.WriteString("&type=LIMIT&price=" + p.Price)
		tif := p.TimeInForce
		if tif == "" {
			tif = market.GTC
		}
		sb.WriteString("&timeInForce=" + string(tif))
	case market.PostOnly:
		sb.WriteString("&type=LIMIT&price=" + p.Price + "&timeInForce=GTX")
	default:
		sb.WriteString("&type=MARKET")
	}

	sb.WriteString("&quantity=" + p.Size)
	if p.ReduceOnly {
		sb.WriteString("&reduceOnly=true")
	}
	if p.PositionSide != "" && p.PositionSide != market.PosSideUnknown {
		sb.WriteString("&positionSide=" + strings.ToUpper(string(p.PositionSide)))
	}
	if p.ClientOrderID != "" {
		sb.WriteString("&newClientOrderId=" + p.ClientOrderID)
	}
	for k, v := range p.Extra {
		sb.WriteString("&" + k + "=" + v)
	}
	return sb.String()
}

func restError(resp *resty.Response) error {
	var apiErr struct {
		Code int64  `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Msg != "" {
		return &market.APIError{
			Venue: market.BinanceUmFutures,
			Code:  fmt.Sprintf("%d", apiErr.Code),
			Msg:   apiErr.Msg,
		}
	}
	return &market.APIError{
		Venue: market.BinanceUmFutures,
		Code:  fmt.Sprintf("%d", resp.StatusCode()),
		Msg:   string(resp.Body()),
	}
}
