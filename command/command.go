package command

import (
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
)

// Command is the closed set of task commands. WebSocket tasks consume the
// Ws* commands; auxiliary tasks consume OrderExecute and FeatInput and
// auto-ack anything else.
type Command interface {
	command()
}

// WsConnect asks an idle WebSocket task to dial the given URL.
type WsConnect struct {
	Msg string
	Ack AckHandle
}

// WsMessage sends a raw text payload on the running connection.
type WsMessage struct {
	Msg string
	Ack AckHandle
}

// WsShutdown sends a final text payload and closes the connection.
type WsShutdown struct {
	Msg string
	Ack AckHandle
}

// OrderExecute relays an ordered batch of order requests to the
// order-execution topic.
type OrderExecute struct {
	Orders []market.OrderParams
}

// FeatInput submits a feature tensor to the model inference task.
type FeatInput struct {
	Tensor *event.Tensor
}

func (WsConnect) command()    {}
func (WsMessage) command()    {}
func (WsShutdown) command()   {}
func (OrderExecute) command() {}
func (FeatInput) command()    {}

// AckOf extracts the ack handle of commands that carry one, for auto-ack
// paths. The second return is false for OrderExecute and FeatInput.
func AckOf(c Command) (AckHandle, bool) {
	switch cmd := c.(type) {
	case WsConnect:
		return cmd.Ack, true
	case WsMessage:
		return cmd.Ack, true
	case WsShutdown:
		return cmd.Ack, true
	default:
		return AckHandle{}, false
	}
}

// SelfAck is the tag a command's own kind maps to, used when a task
// auto-acks a command it did not expect so the issuer is not left
// waiting.
func SelfAck(c Command) AckStatus {
	switch c.(type) {
	case WsConnect:
		return AckWsConnect
	case WsMessage:
		return AckWsMessage
	case WsShutdown:
		return AckWsShutdown
	default:
		return AckUnknown
	}
}
