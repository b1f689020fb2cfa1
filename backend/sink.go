package backend

// ParamSink is a minimal animation sink: it records the velocity parameter
// an animator would blend on. The HUD reads it for the demo readout.
type ParamSink struct {
	velocity float64
}

func (s *ParamSink) SetVelocityParameter(v float64) {
	s.velocity = v
}

func (s *ParamSink) VelocityParameter() float64 {
	return s.velocity
}
