package notification

import (
	"fmt"
	"strings"

	"github.com/garyjia/caf-approval/internal/domain/entity"
)

const defaultRoute = "solicitud-caf"

// frontendRoutes maps a contract type to the form that edits it
var frontendRoutes = map[string]string{
	entity.ContractTypeContract:      "formato-co",
	entity.ContractTypeServiceOrder:  "solicitud-caf",
	entity.ContractTypeChangeOrder:   "formato-oc",
	entity.ContractTypeAgencyPayment: "formato-pd",
	entity.ContractTypeDocumentSign:  "formato-fd",
}

// RouteFor returns the frontend route for a contract type
func RouteFor(contractType string) string {
	if route, ok := frontendRoutes[strings.ToUpper(strings.TrimSpace(contractType))]; ok {
		return route
	}
	return defaultRoute
}

// RequestLink builds the frontend URL of a request, or "" without a base URL
func RequestLink(baseURL string, r entity.Request) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/#/%s/%d", baseURL, RouteFor(r.Fields.ContractType), r.ID)
}
