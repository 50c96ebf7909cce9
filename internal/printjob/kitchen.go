package printjob

import (
	"strings"
)

// KitchenSlip 出品单（做单用），只关心品名、数量和备注
type KitchenSlip struct {
	Title string
	Table string
	Time  string
	Items []Item
}

const kitchenWrapWidth = 28

// FormatKitchen 出品单：品名 xN 大号加粗，备注单独一行
func FormatKitchen(s KitchenSlip) PrintJob {
	title := s.Title
	if title == "" {
		title = "PHIẾU LÀM ĐỒ"
	}
	sep := strings.Repeat("-", 32)

	job := PrintJob{
		{Text: title, FontSize: 14, FontName: DefaultStyle.FontName, Bold: true, Align: AlignCenter},
		{Text: "Bàn: " + s.Table, FontSize: 10, Align: AlignLeft},
	}
	if s.Time != "" {
		job = append(job, Line{Text: s.Time, FontSize: 10, Align: AlignLeft})
	}
	job = append(job, Line{Text: sep, FontSize: 16, Align: AlignLeft})

	for _, it := range s.Items {
		for _, n := range Wrap(it.Name+" "+FormatQty(it.Quantity), kitchenWrapWidth, kitchenWrapWidth) {
			job = append(job, Line{Text: n, FontSize: 14, Bold: true, Align: AlignLeft})
		}
		if note := strings.TrimSpace(it.Note); note != "" {
			job = append(job, Line{Text: DefaultLabels.Note + note, FontSize: 12, Align: AlignLeft})
		}
	}
	job = append(job, Line{Text: sep, FontSize: 16, Align: AlignLeft})
	return job
}
