package ir

// Clone returns a deep copy of the plan. Nil-safe.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{Factories: make([]*Factory, len(p.Factories))}
	for i, f := range p.Factories {
		out.Factories[i] = f.Clone()
	}
	return out
}

// Clone returns a deep copy of the factory, derived fields included.
func (f *Factory) Clone() *Factory {
	if f == nil {
		return nil
	}
	out := *f

	out.Products = make([]*ProductionItem, len(f.Products))
	for i, p := range f.Products {
		cp := *p
		cp.Requirements = cloneFloatMap(p.Requirements)
		cp.ByProducts = cloneByProducts(p.ByProducts)
		out.Products[i] = &cp
	}

	out.PowerProducers = make([]*PowerProducer, len(f.PowerProducers))
	for i, pp := range f.PowerProducers {
		cp := *pp
		cp.Ingredients = append([]PowerIngredient(nil), pp.Ingredients...)
		if pp.ByProduct != nil {
			bp := *pp.ByProduct
			bp.ByProductOf = append([]string(nil), pp.ByProduct.ByProductOf...)
			cp.ByProduct = &bp
		}
		out.PowerProducers[i] = &cp
	}

	out.Inputs = append([]Import(nil), f.Inputs...)

	if f.Parts != nil {
		out.Parts = make(map[string]*PartMetrics, len(f.Parts))
		for k, v := range f.Parts {
			cp := *v
			out.Parts[k] = &cp
		}
	}
	if f.RawResources != nil {
		out.RawResources = make(map[string]RawResource, len(f.RawResources))
		for k, v := range f.RawResources {
			out.RawResources[k] = v
		}
	}
	out.ByProducts = cloneByProducts(f.ByProducts)
	if f.BuildingRequirements != nil {
		out.BuildingRequirements = make(map[string]BuildingRequirement, len(f.BuildingRequirements))
		for k, v := range f.BuildingRequirements {
			out.BuildingRequirements[k] = v
		}
	}

	if f.Dependencies.Requests != nil {
		out.Dependencies.Requests = make(map[int][]DependencyRequest, len(f.Dependencies.Requests))
		for k, v := range f.Dependencies.Requests {
			out.Dependencies.Requests[k] = append([]DependencyRequest(nil), v...)
		}
	}
	if f.Dependencies.Metrics != nil {
		out.Dependencies.Metrics = make(map[string]*DependencyMetric, len(f.Dependencies.Metrics))
		for k, v := range f.Dependencies.Metrics {
			cp := *v
			out.Dependencies.Metrics[k] = &cp
		}
	}
	out.Exports = append([]ExportItem(nil), f.Exports...)

	return &out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneByProducts(in []ByProduct) []ByProduct {
	if in == nil {
		return nil
	}
	out := make([]ByProduct, len(in))
	for i, bp := range in {
		out[i] = bp
		out[i].ByProductOf = append([]string(nil), bp.ByProductOf...)
	}
	return out
}
