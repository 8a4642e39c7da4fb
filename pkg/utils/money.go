package utils

import "math"

// RoundMoney 金额统一保留两位小数，与数据库 NUMERIC(12,2) 的精度对齐
// 折扣计算产生的第三位小数在入库前就四舍五入，避免存储时两边各自取整对不上
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
