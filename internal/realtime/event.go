package realtime

import (
	stdjson "encoding/json"
	"fmt"
	"time"

	"coffeeshop.com/internal/printjob"
	"github.com/segmentio/encoding/json"
)

// Type 事件类型，对应 wire 上的 "type"
type Type string

const (
	TypeConnection  Type = "connection"
	TypePing        Type = "ping"
	TypePong        Type = "pong"
	TypeOrderUpdate Type = "order_update"
	TypePrint       Type = "print"
	TypePrinterInfo Type = "printer_info"
)

// Payload 事件数据的 tagged union，每种 Data 自带类型
type Payload interface {
	EventType() Type
}

// ConnectionData 建连后的欢迎包，client_id / printer_id 二选一
type ConnectionData struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id,omitempty"`
	PrinterID string `json:"printer_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

type PingData struct {
	Timestamp string `json:"timestamp,omitempty"`
}

type PongData struct {
	Timestamp string `json:"timestamp"`
}

// OrderAction order_update 的子类型
type OrderAction string

const (
	OrderCreated     OrderAction = "created"
	OrderUpdated     OrderAction = "updated"
	OrderTransferred OrderAction = "transferred"
)

// OrderUpdateData Order 是业务层给的订单快照，这里不解析
type OrderUpdateData struct {
	Type  OrderAction        `json:"type"`
	Order stdjson.RawMessage `json:"order"`
}

// PrintData 打印任务，wire 上 data 直接是行数组
type PrintData struct {
	Lines printjob.PrintJob
}

func (p PrintData) MarshalJSON() ([]byte, error) {
	if p.Lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]printjob.Line(p.Lines))
}

func (p *PrintData) UnmarshalJSON(b []byte) error {
	var lines []printjob.Line
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	p.Lines = lines
	return nil
}

// PrinterInfoData 打印机上报的自身信息，原样保存
type PrinterInfoData struct {
	Info stdjson.RawMessage
}

func (p PrinterInfoData) MarshalJSON() ([]byte, error) {
	if len(p.Info) == 0 {
		return []byte("{}"), nil
	}
	return p.Info, nil
}

func (ConnectionData) EventType() Type  { return TypeConnection }
func (PingData) EventType() Type        { return TypePing }
func (PongData) EventType() Type        { return TypePong }
func (OrderUpdateData) EventType() Type { return TypeOrderUpdate }
func (PrintData) EventType() Type       { return TypePrint }
func (PrinterInfoData) EventType() Type { return TypePrinterInfo }

// Event 不可变消息；Timestamp 为零值时 wire 上不带 timestamp
type Event struct {
	Data      Payload
	Timestamp time.Time
}

func (e Event) Type() Type {
	if e.Data == nil {
		return ""
	}
	return e.Data.EventType()
}

type wireEvent struct {
	Type      Type    `json:"type"`
	Data      any     `json:"data"`
	Timestamp *string `json:"timestamp,omitempty"`
}

type wireEventIn struct {
	Type      Type               `json:"type"`
	Data      stdjson.RawMessage `json:"data"`
	Timestamp string             `json:"timestamp"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Data == nil {
		return nil, fmt.Errorf("realtime: event without data")
	}
	w := wireEvent{Type: e.Type(), Data: e.Data}
	if !e.Timestamp.IsZero() {
		ts := e.Timestamp.UTC().Format(time.RFC3339)
		w.Timestamp = &ts
	}
	return json.Marshal(w)
}

// Encode 一次编码，广播时所有连接共用同一份 bytes
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent 反解 wire 格式，未知类型返回错误
func DecodeEvent(b []byte) (Event, error) {
	var in wireEventIn
	if err := json.Unmarshal(b, &in); err != nil {
		return Event{}, err
	}
	var ev Event
	if in.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, in.Timestamp)
		if err != nil {
			return Event{}, fmt.Errorf("realtime: bad timestamp: %w", err)
		}
		ev.Timestamp = ts
	}

	data := in.Data
	if len(data) == 0 || string(data) == "null" {
		data = stdjson.RawMessage("{}")
	}
	var err error
	switch in.Type {
	case TypeConnection:
		var d ConnectionData
		err = json.Unmarshal(data, &d)
		ev.Data = d
	case TypePing:
		var d PingData
		err = json.Unmarshal(data, &d)
		ev.Data = d
	case TypePong:
		var d PongData
		err = json.Unmarshal(data, &d)
		ev.Data = d
	case TypeOrderUpdate:
		var d OrderUpdateData
		err = json.Unmarshal(data, &d)
		ev.Data = d
	case TypePrint:
		if string(data) == "{}" {
			data = stdjson.RawMessage("[]")
		}
		var d PrintData
		err = json.Unmarshal(data, &d)
		ev.Data = d
	case TypePrinterInfo:
		ev.Data = PrinterInfoData{Info: append(stdjson.RawMessage(nil), data...)}
	default:
		return Event{}, fmt.Errorf("realtime: unknown event type %q", in.Type)
	}
	if err != nil {
		return Event{}, err
	}
	return ev, nil
}

// 构造函数，业务层只用这些

func NewOrderUpdate(action OrderAction, order stdjson.RawMessage, at time.Time) Event {
	return Event{Data: OrderUpdateData{Type: action, Order: order}, Timestamp: at}
}

func NewPrint(job printjob.PrintJob, at time.Time) Event {
	return Event{Data: PrintData{Lines: job}, Timestamp: at}
}

func NewPong(at time.Time) Event {
	return Event{Data: PongData{Timestamp: at.UTC().Format(time.RFC3339)}}
}

func NewPing(at time.Time) Event {
	return Event{Data: PingData{Timestamp: at.UTC().Format(time.RFC3339)}}
}
