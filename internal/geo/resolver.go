// Package geo maps city names to provider geographic codes.
package geo

import "go.uber.org/zap"

// NationwideCode is the fallback geographic code for unknown cities.
const NationwideCode = "000000"

// defaultTable covers the built-in city list. Entries from configuration
// are overlaid on top of it at startup.
var defaultTable = map[string]string{
	"北京": "010000", "上海": "020000", "广州": "030200", "深圳": "040000",
	"杭州": "080200", "成都": "090200", "南京": "070200", "武汉": "180200",
	"西安": "200200", "苏州": "070300", "重庆": "060000", "长沙": "190200",
	"天津": "050000", "青岛": "120300", "厦门": "110300", "宁波": "080300",
	"大连": "230300", "福州": "110200", "济南": "120200", "无锡": "070400",
	"合肥": "150200", "郑州": "170200", "沈阳": "230200", "昆明": "250200",
	"哈尔滨": "220200", "石家庄": "160200", "南昌": "130200", "东莞": "030800",
	"佛山": "030600", "珠海": "030500", "常州": "070500", "温州": "080400",
	"全国": NationwideCode,
}

// MergeTable overlays extra entries on the built-in table and returns a
// fresh map. A nil argument yields a copy of the defaults.
func MergeTable(extra map[string]string) map[string]string {
	merged := make(map[string]string, len(defaultTable)+len(extra))
	for city, code := range defaultTable {
		merged[city] = code
	}
	for city, code := range extra {
		merged[city] = code
	}
	return merged
}

// Resolver performs immutable city-name lookups. It never fails: an
// unknown city resolves to the nationwide default with a warning.
type Resolver struct {
	codes  map[string]string
	logger *zap.Logger
}

// NewResolver builds a Resolver over the given table. The table is copied,
// so later mutation by the caller has no effect.
func NewResolver(codes map[string]string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	owned := make(map[string]string, len(codes))
	for city, code := range codes {
		owned[city] = code
	}
	return &Resolver{codes: owned, logger: logger}
}

// Resolve returns the geographic code for city.
func (r *Resolver) Resolve(city string) string {
	if code, ok := r.codes[city]; ok {
		return code
	}
	r.logger.Warn("unknown city, using nationwide code",
		zap.String("city", city),
		zap.String("code", NationwideCode),
	)
	return NationwideCode
}
