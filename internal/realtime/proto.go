package realtime

import stdjson "encoding/json"

// ClientMsg 客户端上行消息：{"type":"ping"} / {"type":"printer_info","data":{...}}
type ClientMsg struct {
	Type Type               `json:"type"`
	Data stdjson.RawMessage `json:"data,omitempty"`
}
