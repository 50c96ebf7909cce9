package service

import (
	"fmt"
	"time"

	"coffeeshop.com/internal/papercount"
	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/printjob"
	"github.com/shopspring/decimal"
)

// DisplayZone 小票上的时间按店内时区显示
var DisplayZone = time.FixedZone("ICT", 7*3600)

const displayLayout = "15:04 02/01/2006"

func displayTime(t time.Time) string {
	return t.In(DisplayZone).Format(displayLayout)
}

func tableName(t *domain.Table, id uint64) string {
	if t != nil && t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("Bàn %d", id)
}

func kitchenSlip(table string, items []domain.OrderItem, at time.Time) printjob.PrintJob {
	slip := printjob.KitchenSlip{Table: table, Time: displayTime(at)}
	for _, it := range items {
		slip.Items = append(slip.Items, printjob.Item{Name: it.Name, Quantity: it.Quantity, Note: it.Note})
	}
	return printjob.FormatKitchen(slip)
}

func receipt(f *printjob.Formatter, o *domain.Order, table string) printjob.PrintJob {
	meta := []string{
		"Bàn: " + table,
		"Mã HĐ: " + o.OrderCode,
		"Giờ vào: " + displayTime(o.TimeIn),
	}
	if o.TimeOut != nil {
		meta = append(meta, "Giờ ra: "+displayTime(*o.TimeOut))
	}
	t := printjob.Ticket{
		Title:  "HÓA ĐƠN THANH TOÁN",
		Meta:   meta,
		Total:  &o.TotalAmount,
		Footer: []string{"Cảm ơn quý khách!"},
	}
	for _, it := range o.Items {
		t.Items = append(t.Items, printjob.Item{Name: it.Name, Quantity: it.Quantity, Amount: it.TotalPrice, Note: it.Note})
	}
	return f.Format(t)
}

// shiftSummary 交班汇总：按品名合计已完成订单
func shiftSummary(f *printjob.Formatter, s *domain.Shift, orders []domain.Order) printjob.PrintJob {
	type agg struct {
		qty    int
		amount decimal.Decimal
	}
	var (
		names   []string
		byName  = make(map[string]*agg)
		revenue = decimal.Zero
	)
	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
		for _, it := range o.Items {
			a, ok := byName[it.Name]
			if !ok {
				a = &agg{amount: decimal.Zero}
				byName[it.Name] = a
				names = append(names, it.Name)
			}
			a.qty += it.Quantity
			a.amount = a.amount.Add(it.TotalPrice)
		}
	}

	end := 0
	if s.EndOrderPaperCount != nil {
		end = *s.EndOrderPaperCount
	}
	meta := []string{
		"Nhân viên: " + s.StaffID,
		"Bắt đầu: " + displayTime(s.StartTime),
	}
	if s.ShiftType != "" {
		meta = append(meta, "Ca: "+s.ShiftType)
	}
	if s.EndTime != nil {
		meta = append(meta, "Kết thúc: "+displayTime(*s.EndTime))
	}
	meta = append(meta,
		fmt.Sprintf("Cuống order: %d - %d", s.OrderPaperCount, end),
		fmt.Sprintf("Số order (cuống): %d", papercount.Calc(s.OrderPaperCount, end)),
		fmt.Sprintf("Số order (máy): %d", len(orders)),
		"Tiền đầu ca: "+printjob.FormatAmount(s.InitialCash),
		"Tiền cuối ca: "+printjob.FormatAmount(s.EndCash),
	)

	t := printjob.Ticket{Title: "BÁO CÁO KẾT CA", Meta: meta, Total: &revenue}
	for _, n := range names {
		a := byName[n]
		t.Items = append(t.Items, printjob.Item{Name: n, Quantity: a.qty, Amount: a.amount})
	}
	if s.Note != "" {
		t.Footer = []string{s.Note}
	}
	return f.Format(t)
}
