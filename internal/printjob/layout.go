package printjob

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Layout 三列宽度，单位是显示列（越南语带声调字符按 1 列算）
type Layout struct {
	NameWidth  int
	QtyWidth   int
	PriceWidth int
}

// DefaultLayout 80mm 纸 33 列：品名 20 + 数量 4 + 金额 9
var DefaultLayout = Layout{NameWidth: 20, QtyWidth: 4, PriceWidth: 9}

const continuationIndent = "  "

// 固定按非东亚宽度计算，结果不受运行环境 locale 影响
var cells = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

// CellWidth 字符串显示列数
func CellWidth(s string) int { return cells.StringWidth(s) }

func (l Layout) Width() int { return l.NameWidth + l.QtyWidth + l.PriceWidth }

// Row 按三列拼一行；qty/price 超宽时原样输出，不截断金额
func (l Layout) Row(name, qty, price string) string {
	return cells.FillRight(name, l.NameWidth) +
		center(qty, l.QtyWidth) +
		cells.FillLeft(price, l.PriceWidth)
}

// TotalRow 标签占 品名+数量 两列，金额右对齐
func (l Layout) TotalRow(label, amount string) string {
	return cells.FillRight(cells.Truncate(label, l.NameWidth+l.QtyWidth, ""), l.NameWidth+l.QtyWidth) +
		cells.FillLeft(amount, l.PriceWidth)
}

func (l Layout) Separator() string { return strings.Repeat("-", l.Width()) }

func center(s string, w int) string {
	sw := cells.StringWidth(s)
	if sw >= w {
		return s
	}
	left := (w - sw) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", w-sw-left)
}

var grouping = message.NewPrinter(language.English)

// FormatAmount 四舍五入到整数并加千分位：1234000 -> "1,234,000"
func FormatAmount(d decimal.Decimal) string {
	return grouping.Sprintf("%d", d.Round(0).IntPart())
}

// FormatQty x<N>
func FormatQty(n int) string {
	return "x" + strconv.Itoa(n)
}

// Wrap 按词折行：首行宽 first，后续行宽 rest；只有单词本身超宽时才硬切
func Wrap(s string, first, rest int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		cur   string
		width = first
	)
	flush := func() {
		lines = append(lines, cur)
		cur = ""
		width = rest
	}
	for _, w := range words {
		for cells.StringWidth(w) > width {
			// 超长单词：先把当前行刷掉，再按列宽切
			if cur != "" {
				flush()
				continue
			}
			head := cells.Truncate(w, width, "")
			if head == "" {
				// 宽度放不下一个字符，直接整词输出避免死循环
				break
			}
			cur = head
			w = w[len(head):]
			flush()
		}
		if w == "" {
			continue
		}
		switch {
		case cur == "":
			cur = w
		case cells.StringWidth(cur)+1+cells.StringWidth(w) <= width:
			cur += " " + w
		default:
			flush()
			cur = w
		}
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}
