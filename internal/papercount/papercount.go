// Package papercount 计算一个班次用掉的点单纸张数。
//
// 点单纸按本装订，每本 100 张，编号 n 所在的本为 n / 100。
package papercount

const BookSize = 100

// Calc 起止编号之间用掉的张数（含两端）。
//
// 同一本内 end < start 视为没用，返回 0；跨本时不校验方向，
// 默认 end 所在的本在 start 之后，中间跳过的整本不计。
func Calc(start, end int) int {
	startBook, endBook := start/BookSize, end/BookSize
	if startBook == endBook {
		if end < start {
			return 0
		}
		return end - start + 1
	}
	firstBookMax := startBook*BookSize + BookSize - 1
	lastBookMin := endBook * BookSize
	return (firstBookMax - start + 1) + (end - lastBookMin + 1)
}
