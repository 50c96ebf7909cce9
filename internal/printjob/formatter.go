package printjob

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item 小票上的一个品项，Amount 是该行金额（单价 x 数量）
type Item struct {
	Name     string
	Quantity int
	Amount   decimal.Decimal
	Note     string
}

// Ticket 订单或交班汇总的快照；Total 为 nil 时按 Items 求和
type Ticket struct {
	Title  string
	Meta   []string // 桌号、时间等
	Items  []Item
	Total  *decimal.Decimal
	Footer []string
}

// Labels 小票上的固定文案
type Labels struct {
	Name  string
	Qty   string
	Price string
	Total string
	Note  string
}

var DefaultLabels = Labels{
	Name:  "Tên món",
	Qty:   "SL",
	Price: "T.Tiền",
	Total: "Tổng cộng",
	Note:  "Ghi chú: ",
}

// Style 字号字体
type Style struct {
	FontName  string
	TitleSize int
	BodySize  int
	NoteSize  int
}

var DefaultStyle = Style{FontName: "Arial Black", TitleSize: 14, BodySize: 10, NoteSize: 10}

type Formatter struct {
	Layout Layout
	Labels Labels
	Style  Style
}

func NewFormatter() *Formatter {
	return &Formatter{Layout: DefaultLayout, Labels: DefaultLabels, Style: DefaultStyle}
}

// Format 纯函数：同一个 Ticket 永远得到同样的行
func (f *Formatter) Format(t Ticket) PrintJob {
	job := make(PrintJob, 0, 8+len(t.Meta)+len(t.Items)*2+len(t.Footer))
	if t.Title != "" {
		job = append(job, Line{Text: t.Title, FontSize: f.Style.TitleSize, FontName: f.Style.FontName, Bold: true, Align: AlignCenter})
	}
	for _, m := range t.Meta {
		job = append(job, f.body(m, false, AlignLeft))
	}

	job = append(job, f.body(f.Layout.Separator(), false, AlignLeft))
	job = append(job, f.body(f.Layout.Row(f.Labels.Name, f.Labels.Qty, f.Labels.Price), true, AlignLeft))
	job = append(job, f.body(f.Layout.Separator(), false, AlignLeft))

	total := decimal.Zero
	for _, it := range t.Items {
		job = append(job, f.item(it)...)
		total = total.Add(it.Amount)
	}
	if t.Total != nil {
		total = *t.Total
	}

	job = append(job, f.body(f.Layout.Separator(), false, AlignLeft))
	job = append(job, f.body(f.Layout.TotalRow(f.Labels.Total, FormatAmount(total)), true, AlignLeft))

	for _, ft := range t.Footer {
		job = append(job, f.body(ft, false, AlignCenter))
	}
	return job
}

func (f *Formatter) item(it Item) []Line {
	l := f.Layout
	names := Wrap(it.Name, l.NameWidth, l.NameWidth-len(continuationIndent))

	out := make([]Line, 0, len(names)+1)
	out = append(out, f.body(l.Row(names[0], FormatQty(it.Quantity), FormatAmount(it.Amount)), false, AlignLeft))
	for _, n := range names[1:] {
		out = append(out, f.body(continuationIndent+n, false, AlignLeft))
	}

	if note := strings.TrimSpace(it.Note); note != "" {
		w := l.Width() - len(continuationIndent)
		for _, n := range Wrap(f.Labels.Note+note, w, w) {
			out = append(out, Line{Text: continuationIndent + n, FontSize: f.Style.NoteSize, Align: AlignLeft})
		}
	}
	return out
}

func (f *Formatter) body(text string, bold bool, align Align) Line {
	return Line{Text: text, FontSize: f.Style.BodySize, Bold: bold, Align: align}
}

// Format 默认版式
func Format(t Ticket) PrintJob {
	return NewFormatter().Format(t)
}
