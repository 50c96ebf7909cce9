package printjob

// Align 打印行对齐方式
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Line 虚拟小票的一行，字段名与打印端约定一致
type Line struct {
	Text     string `json:"text"`
	FontSize int    `json:"fontSize"`
	FontName string `json:"fontName,omitempty"`
	Bold     bool   `json:"bold"`
	Align    Align  `json:"align"`
}

// PrintJob 有序的行列表，构建后不再修改
type PrintJob []Line

// Texts 只取文本，方便日志和测试
func (j PrintJob) Texts() []string {
	out := make([]string, len(j))
	for i, l := range j {
		out[i] = l.Text
	}
	return out
}
