package domain

// ConfigResolver maps a CalculationsConfig to the parameters consumed by the
// solver. It is pure: no I/O, no clock, never fails.
type ConfigResolver struct{}

// NewConfigResolver creates a new resolver.
func NewConfigResolver() *ConfigResolver {
	return &ConfigResolver{}
}

// Resolve builds the fully populated parameter set for cfg.
func (r *ConfigResolver) Resolve(cfg CalculationsConfig) ResolvedParameters {
	params := r.baseParameters(cfg.Method)

	// user adjustments land on top of the method's, key by key
	params.Adjustments = params.Adjustments.Merge(cfg.Adjustments)

	params.Madhab = MadhabShafi
	if cfg.AsrTime == AsrTimeHanafi {
		params.Madhab = MadhabHanafi
	}

	params.HighLatitudeRule = cfg.HighLatitudeRule
	if params.HighLatitudeRule == "" {
		params.HighLatitudeRule = HighLatitudeMiddleOfTheNight
	}
	params.PolarCircleResolution = cfg.PolarCircleResolution
	if params.PolarCircleResolution == "" {
		params.PolarCircleResolution = PolarUnresolved
	}
	return params
}

func (r *ConfigResolver) baseParameters(spec MethodSpec) ResolvedParameters {
	if spec.Custom != nil {
		return fromCustomMethod(*spec.Custom)
	}
	name := spec.Named
	mp, ok := methodTable[name]
	if !ok {
		name = DefaultMethod
		mp = methodTable[DefaultMethod]
	}
	return ResolvedParameters{
		Method:       name,
		FajrAngle:    mp.fajrAngle,
		IshaAngle:    mp.ishaAngle,
		IshaInterval: mp.ishaInterval,
		MaghribAngle: mp.maghribAngle,
		Adjustments:  mp.adjustments.Merge(nil),
	}
}

func fromCustomMethod(c CustomMethod) ResolvedParameters {
	p := ResolvedParameters{
		Method:       MethodOther,
		FajrAngle:    defaultCustomFajrAngle,
		IshaAngle:    defaultCustomIshaAngle,
		IshaInterval: defaultCustomIshaInterval,
		MaghribAngle: defaultCustomMaghribAngle,
		Adjustments:  c.MethodAdjustments.Merge(nil),
	}
	if c.FajrAngle != nil {
		p.FajrAngle = *c.FajrAngle
	}
	if c.IshaAngle != nil {
		p.IshaAngle = *c.IshaAngle
	}
	if c.IshaInterval != nil {
		p.IshaInterval = *c.IshaInterval
	}
	if c.MaghribAngle != nil {
		p.MaghribAngle = *c.MaghribAngle
	}
	return p
}

// Rebuild applies patch to prev and returns the new config. prev is not
// modified; adjustments are merged sparsely like in Resolve.
func (r *ConfigResolver) Rebuild(prev CalculationsConfig, patch ConfigPatch) CalculationsConfig {
	next := prev
	next.Adjustments = prev.Adjustments.Clone()
	if prev.Method.Custom != nil {
		c := *prev.Method.Custom
		c.MethodAdjustments = c.MethodAdjustments.Clone()
		next.Method.Custom = &c
	}

	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.Latitude != nil {
		next.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		next.Longitude = *patch.Longitude
	}
	if patch.Method != nil {
		next.Method = *patch.Method
	}
	if patch.Adjustments != nil {
		if next.Adjustments == nil {
			next.Adjustments = Adjustments{}
		}
		for p, v := range patch.Adjustments {
			next.Adjustments[p] = v
		}
	}
	if patch.AsrTime != nil {
		next.AsrTime = *patch.AsrTime
	}
	if patch.HighLatitudeRule != nil {
		next.HighLatitudeRule = *patch.HighLatitudeRule
	}
	if patch.PolarCircleResolution != nil {
		next.PolarCircleResolution = *patch.PolarCircleResolution
	}
	return next
}
