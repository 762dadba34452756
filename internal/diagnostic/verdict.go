package diagnostic

// BuildVerdict runs the gap model, the classifier and the prescription
// lookup for one audit submission.
func BuildVerdict(m AuditMetrics, goals GoalData) Verdict {
	if m.WindowDays == 0 {
		m.WindowDays = DefaultWindowDays
	}
	b := IdentifyBottleneck(m, goals)
	return Verdict{
		Bottleneck:   b,
		Prescription: GetPrescription(b),
		Model:        CalculateModel(goals),
		Metrics:      m,
		Goals:        goals,
	}
}

// AttachSoftBottleneck returns a copy of v carrying the self-reported
// blocker. It may happen only once per verdict.
func AttachSoftBottleneck(v Verdict, soft SoftBottleneck) (Verdict, error) {
	if !soft.Valid() {
		return v, ErrUnknownSoftBottleneck
	}
	if v.SoftBottleneck != nil {
		return v, ErrSoftBottleneckAlreadySet
	}
	s := soft
	v.SoftBottleneck = &s
	return v, nil
}
