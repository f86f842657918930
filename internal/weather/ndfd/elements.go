package ndfd

// validElements lists every NDFD element code the XML client accepts.
var validElements = []string{
	"maxt", "mint", "temp", "dew", "appt",
	"pop12", "qpf", "snow", "sky", "rh", "wspd", "wdir", "wx", "icons",
	"waveh", "incw34", "incw50", "incw64", "cumw34", "cumw50",
	"cumw64", "wgust", "critfireo", "dryfireo", "conhazo", "ptornado",
	"phail", "ptstmwinds", "pxtornado", "pxhail", "pxtstmwinds",
	"ptotsvrtstm", "pxtotsvrtstm", "tmpabv14d", "tmpblw14d",
	"tmpabv30d", "tmpblw30d", "tmpabv90d", "tmpblw90d", "prcpabv14d",
	"prcpblw14d", "prcpabv30d", "prcpblw30d", "prcpabv90d",
	"prcpblw90d", "precipa_r", "sky_r", "td_r", "temp_r", "wdir_r",
	"wspd_r", "wwa", "iceaccum", "maxrh", "minrh",
}

var elementSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(validElements))
	for _, e := range validElements {
		m[e] = struct{}{}
	}
	return m
}()

// IsValidElement reports whether code is a known NDFD element.
func IsValidElement(code string) bool {
	_, ok := elementSet[code]
	return ok
}

// Elements returns a copy of the element whitelist.
func Elements() []string {
	out := make([]string, len(validElements))
	copy(out, validElements)
	return out
}
