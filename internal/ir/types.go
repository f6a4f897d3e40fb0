package ir

// Plan is the full factory set recomputed as one unit.
type Plan struct {
	Factories []*Factory `json:"factories"`
}

// Factory returns the factory with the given id.
func (p *Plan) Factory(id int) (*Factory, bool) {
	for _, f := range p.Factories {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Factory is a user-defined production unit.
//
// Products, PowerProducers and Inputs are authored by the user. Every other
// field is derived and rebuilt by the recompute pipeline.
type Factory struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`

	Products       []*ProductionItem `json:"products"`
	PowerProducers []*PowerProducer  `json:"power_producers"`
	Inputs         []Import          `json:"inputs"`

	Parts                 map[string]*PartMetrics        `json:"parts"`
	RawResources          map[string]RawResource         `json:"raw_resources"`
	ByProducts            []ByProduct                    `json:"by_products"`
	BuildingRequirements  map[string]BuildingRequirement `json:"building_requirements"`
	Dependencies          Dependencies                   `json:"dependencies"`
	Exports               []ExportItem                   `json:"exports"`
	Power                 PowerSummary                   `json:"power"`
	RequirementsSatisfied bool                           `json:"requirements_satisfied"`
	UsingRawResourcesOnly bool                           `json:"using_raw_resources_only"`
	HasProblem            bool                           `json:"has_problem"`
}

// Product returns the production item for a material.
func (f *Factory) Product(material string) (*ProductionItem, bool) {
	for _, p := range f.Products {
		if p.Material == material {
			return p, true
		}
	}
	return nil, false
}

// Input returns the index of the import of material from factoryID, or -1.
func (f *Factory) Input(factoryID int, material string) int {
	for i, in := range f.Inputs {
		if in.FactoryID == factoryID && in.Material == material {
			return i
		}
	}
	return -1
}

// ProductionItem is one product a factory makes with a selected recipe.
type ProductionItem struct {
	Material     string  `json:"material"`
	Amount       float64 `json:"amount"`              // target throughput per minute
	RecipeID     string  `json:"recipe_id,omitempty"` // empty while selection is pending
	DisplayOrder int     `json:"display_order"`

	Requirements map[string]float64 `json:"requirements"` // material -> amount/min
	ByProducts   []ByProduct        `json:"by_products"`
}

// ByProduct is a non-primary output, either of one product or aggregated per factory.
type ByProduct struct {
	Material    string   `json:"material"`
	Amount      float64  `json:"amount"`
	ByProductOf []string `json:"by_product_of"` // parent product materials
}

// DrivingField names the power producer field that was last edited.
type DrivingField string

const (
	DrivenByPower      DrivingField = "power"
	DrivenByIngredient DrivingField = "ingredient"
	DrivenByBuilding   DrivingField = "building"
)

// ValidDrivingFields defines the allowed driving fields.
var ValidDrivingFields = map[DrivingField]bool{
	DrivenByPower:      true,
	DrivenByIngredient: true,
	DrivenByBuilding:   true,
}

// PowerProducer is a generator burning fuel into power.
//
// Exactly one of PowerAmount, IngredientAmount and BuildingAmount is
// authoritative per pass (named by Driving); the balancer derives the other two.
type PowerProducer struct {
	Building         string       `json:"building"`
	RecipeID         string       `json:"recipe_id"`
	Driving          DrivingField `json:"driving"`
	PowerAmount      float64      `json:"power_amount"`      // MW
	IngredientAmount float64      `json:"ingredient_amount"` // primary fuel per minute
	BuildingAmount   float64      `json:"building_amount"`
	DisplayOrder     int          `json:"display_order"`

	Ingredients []PowerIngredient `json:"ingredients"`
	ByProduct   *ByProduct        `json:"by_product,omitempty"`
}

// PowerIngredient is a fuel or supplemental resource consumed by a power producer.
type PowerIngredient struct {
	Material string  `json:"material"`
	Amount   float64 `json:"amount"`
}

// Import declares that a factory receives a material from another factory.
type Import struct {
	FactoryID int     `json:"factory_id"` // supplying factory
	Material  string  `json:"material"`
	Amount    float64 `json:"amount"`
}

// PartMetrics is the per-factory balance of one material.
type PartMetrics struct {
	AmountRequired           float64 `json:"amount_required"`
	AmountRequiredProduction float64 `json:"amount_required_production"`
	AmountRequiredPower      float64 `json:"amount_required_power"`
	AmountRequiredExports    float64 `json:"amount_required_exports"`

	AmountSupplied              float64 `json:"amount_supplied"`
	AmountSuppliedViaInput      float64 `json:"amount_supplied_via_input"`
	AmountSuppliedViaProduction float64 `json:"amount_supplied_via_production"`
	AmountSuppliedViaRaw        float64 `json:"amount_supplied_via_raw"`

	AmountRemaining float64 `json:"amount_remaining"`
	Satisfied       bool    `json:"satisfied"`
	IsRaw           bool    `json:"is_raw"`
	Exportable      bool    `json:"exportable"`
}

// InternalDemand is the amount consumed inside the factory.
func (m *PartMetrics) InternalDemand() float64 {
	return m.AmountRequiredProduction + m.AmountRequiredPower
}

// Settle recomputes the totals from their components.
func (m *PartMetrics) Settle() {
	m.AmountRequired = m.AmountRequiredProduction + m.AmountRequiredPower + m.AmountRequiredExports
	m.AmountSupplied = m.AmountSuppliedViaInput + m.AmountSuppliedViaProduction + m.AmountSuppliedViaRaw
	m.AmountRemaining = m.AmountSupplied - m.AmountRequired
	m.Satisfied = m.AmountRemaining >= 0
}

// RawResource records a factory's draw on an environment-sourced material.
type RawResource struct {
	Material string  `json:"material"`
	Amount   float64 `json:"amount"`
	Limit    float64 `json:"limit,omitempty"` // informational only
}

// BuildingRequirement aggregates building counts and power per building type.
type BuildingRequirement struct {
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	PowerConsumed float64 `json:"power_consumed"`
	PowerProduced float64 `json:"power_produced"`
}

// PowerSummary is a factory's aggregate power balance.
type PowerSummary struct {
	Consumed   float64 `json:"consumed"`
	Produced   float64 `json:"produced"`
	Difference float64 `json:"difference"` // produced - consumed
}

// Dependencies is owned by the supplying factory.
type Dependencies struct {
	// Requests is keyed by the consuming factory id.
	Requests map[int][]DependencyRequest `json:"requests"`
	// Metrics is keyed by material.
	Metrics map[string]*DependencyMetric `json:"metrics"`
}

// DependencyRequest is one material requested by a consumer.
type DependencyRequest struct {
	Material string  `json:"material"`
	Amount   float64 `json:"amount"`
}

// DependencyMetric aggregates all requests for one material on a supplier.
type DependencyMetric struct {
	Material           string  `json:"material"`
	Request            float64 `json:"request"`
	Supply             float64 `json:"supply"`
	Difference         float64 `json:"difference"`
	IsRequestSatisfied bool    `json:"is_request_satisfied"`
}

// ExportItem is a material available for, or demanded by, other factories.
type ExportItem struct {
	Material     string  `json:"material"`
	Supply       float64 `json:"supply"`
	Demands      float64 `json:"demands"`
	Surplus      float64 `json:"surplus"` // negative is a deficit
	DisplayOrder int     `json:"display_order"`
}
