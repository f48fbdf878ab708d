package notify

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultRoute 未知部门的跳转地址
const DefaultRoute = "/dashboard"

var departmentRoutes = map[string]string{
	"Finance":             "/pages/finance",
	"Medical Services":    "/pages/medical-services",
	"Strategy Innovation": "/pages/strategy-innovation",
	"ICT":                 "/pages/ict",
	"Nursing Services":    "/pages/nursing-services",
	"Supply Chain":        "/pages/supply-chain",
	"Operation":           "/pages/operation",
	"Operations":          "/pages/operation",
	"Legal KHA":           "/pages/legal-kha",
	"Security":            "/pages/security",
	"Internal Audit":      "/pages/internal-audit",
	"Risk Compliance":     "/pages/risk-compliance",
	"Engineering":         "/pages/engineering",
	"Health Science":      "/pages/health-science",
	"Human Resource":      "/pages/human-resource",
	"Human Resources":     "/pages/human-resource",
}

var folded = func() map[string]string {
	m := make(map[string]string, len(departmentRoutes))
	for name, route := range departmentRoutes {
		m[foldName(name)] = route
	}
	return m
}()

func foldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// RouteFor 部门名到前端页面的映射，大小写不敏感
func RouteFor(branchName string) string {
	if branchName == "" {
		return DefaultRoute
	}
	if route, ok := folded[foldName(branchName)]; ok {
		return route
	}
	return DefaultRoute
}
