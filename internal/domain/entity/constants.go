package entity

// Contract type codes carried in Fields.ContractType
const (
	ContractTypeContract      = "CO" // contrato
	ContractTypeServiceOrder  = "OS" // orden de servicio
	ContractTypeChangeOrder   = "OC" // orden de cambio
	ContractTypeAgencyPayment = "PD" // pago a dependencias
	ContractTypeDocumentSign  = "FD" // firma de documento
)

// Payload keys managed by the workflow itself, including the names the
// legacy CAF frontend still sends. Create strips them; corrections reject them.
var ReservedKeys = []string{
	"id",
	"approval_state",
	"mode",
	"comments",
	"reviewing_actor",
	"id_solicitud",
	"approve",
	"Mode",
	"Comentarios",
}

// KeyRequestingActor identifies the submitter; accepted only at creation
const KeyRequestingActor = "requesting_actor"

// legacyAliases maps legacy CAF form keys to Fields keys
var legacyAliases = map[string]string{
	"Tipo_Contratacion":            "contract_type",
	"Responsable":                  "responsible",
	"Fecha":                        "date",
	"Cliente":                      "client",
	"Building":                     "building",
	"Direccion":                    "address",
	"Proveedor":                    "supplier",
	"Descripcion_trabajo_servicio": "work_description",
	"Justificacion_trabajo":        "justification",
	"Enlace_sharepoint":            "sharepoint_link",
	"Fecha_inicio":                 "start_date",
	"FechaTerminacionFinalServ":    "end_date",
	"MontoMXNsubtotal":             "amount_mxn",
	"MontoUSDsubtotal":             "amount_usd",
	"TDC":                          "exchange_rate",
	"Tipo_trabajo":                 "work_type",
	"Usuario":                      KeyRequestingActor,
}
