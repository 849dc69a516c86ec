package utils

import "fmt"

// Channel aggregation. Each Flatten function reduces a reading's channel
// list to a summary record after applying that reading type's inclusion
// predicate. A nil field on a channel is excluded from that field's
// statistics only. Aggregates are never computed over an empty set:
// zero eligible channels yields ErrNoChannels, an eligible field with
// zero contributors yields ErrNoSamples.

func floatStats(vals []float64) (min, mean, max float64) {
	min, max = vals[0], vals[0]
	sum := 0.0
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, sum / float64(len(vals)), max
}

// int64Stats reports min, mean, max and total of a counter series. The mean
// is truncated to an integer to match the reported mean-count semantics.
func int64Stats(vals []int64) (min, mean, max, total int64) {
	min, max = vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		total += v
	}
	return min, total / int64(len(vals)), max, total
}

func noSamples(reading, field string) error {
	return fmt.Errorf("%s %s: %w", reading, field, ErrNoSamples)
}

// FlattenDownstream summarizes the downstream SC-QAM channel list. Every
// channel is eligible; NumChannels counts the channels that reported a
// signal strength.
func FlattenDownstream(d DocsisDownstream) (*DocsisDownstreamFlattened, error) {
	if len(d.Data) == 0 {
		return nil, fmt.Errorf("downstream: %w", ErrNoChannels)
	}

	var sigs, snrs []float64
	var octets, correcteds, uncorrecteds []int64
	for _, c := range d.Data {
		if c.SignalStrength != nil {
			sigs = append(sigs, *c.SignalStrength)
		}
		if c.Snr != nil {
			snrs = append(snrs, *c.Snr)
		}
		if c.Octets != nil {
			octets = append(octets, *c.Octets)
		}
		if c.Corrected != nil {
			correcteds = append(correcteds, *c.Corrected)
		}
		if c.Uncorrected != nil {
			uncorrecteds = append(uncorrecteds, *c.Uncorrected)
		}
	}
	switch {
	case len(sigs) == 0:
		return nil, noSamples("downstream", "signal_strength")
	case len(snrs) == 0:
		return nil, noSamples("downstream", "snr")
	case len(octets) == 0:
		return nil, noSamples("downstream", "octets")
	case len(correcteds) == 0:
		return nil, noSamples("downstream", "corrected")
	case len(uncorrecteds) == 0:
		return nil, noSamples("downstream", "uncorrected")
	}

	f := &DocsisDownstreamFlattened{
		Timestamp:   d.Timestamp,
		NumChannels: len(sigs),
	}
	f.SignalStrengthMin, f.SignalStrengthMean, f.SignalStrengthMax = floatStats(sigs)
	f.SnrMin, f.SnrMean, f.SnrMax = floatStats(snrs)
	_, _, _, f.OctetsTotal = int64Stats(octets)
	f.CorrectedMin, f.CorrectedMean, f.CorrectedMax, f.CorrectedTotal = int64Stats(correcteds)
	f.UncorrectedMin, f.UncorrectedMean, f.UncorrectedMax, f.UncorrectedTotal = int64Stats(uncorrecteds)
	return f, nil
}

// FlattenDownstreamOFDM summarizes the OFDM receivers whose PLC is locked.
// An unlocked receiver reports sentinel values, so it is excluded entirely.
func FlattenDownstreamOFDM(d DocsisDownstreamOFDM) (*DocsisDownstreamOFDMFlattened, error) {
	var locked []DocsisDownstreamOFDMChannel
	for _, c := range d.Data {
		if c.PlcLock {
			locked = append(locked, c)
		}
	}
	if len(locked) == 0 {
		return nil, fmt.Errorf("downstream ofdm: %w", ErrNoChannels)
	}

	var powers, snrs []float64
	var octets, correcteds, uncorrecteds []int64
	for _, c := range locked {
		if c.PlcPower != nil {
			powers = append(powers, *c.PlcPower)
		}
		if c.Snr != nil {
			snrs = append(snrs, *c.Snr)
		}
		if c.Octets != nil {
			octets = append(octets, *c.Octets)
		}
		if c.Corrected != nil {
			correcteds = append(correcteds, *c.Corrected)
		}
		if c.Uncorrected != nil {
			uncorrecteds = append(uncorrecteds, *c.Uncorrected)
		}
	}
	switch {
	case len(powers) == 0:
		return nil, noSamples("downstream ofdm", "plc_power")
	case len(snrs) == 0:
		return nil, noSamples("downstream ofdm", "snr")
	case len(octets) == 0:
		return nil, noSamples("downstream ofdm", "octets")
	case len(correcteds) == 0:
		return nil, noSamples("downstream ofdm", "corrected")
	case len(uncorrecteds) == 0:
		return nil, noSamples("downstream ofdm", "uncorrected")
	}

	f := &DocsisDownstreamOFDMFlattened{
		Timestamp:   d.Timestamp,
		NumChannels: len(locked),
	}
	f.PlcPowerMin, f.PlcPowerMean, f.PlcPowerMax = floatStats(powers)
	f.SnrMin, f.SnrMean, f.SnrMax = floatStats(snrs)
	_, _, _, f.OctetsTotal = int64Stats(octets)
	f.CorrectedMin, f.CorrectedMean, f.CorrectedMax, f.CorrectedTotal = int64Stats(correcteds)
	f.UncorrectedMin, f.UncorrectedMean, f.UncorrectedMax, f.UncorrectedTotal = int64Stats(uncorrecteds)
	return f, nil
}

// FlattenUpstream summarizes the upstream SC-QAM channel list. Every channel
// is eligible; NumChannels counts the channels that reported a signal
// strength.
func FlattenUpstream(u DocsisUpstream) (*DocsisUpstreamFlattened, error) {
	if len(u.Data) == 0 {
		return nil, fmt.Errorf("upstream: %w", ErrNoChannels)
	}

	var sigs []float64
	for _, c := range u.Data {
		if c.SignalStrength != nil {
			sigs = append(sigs, *c.SignalStrength)
		}
	}
	if len(sigs) == 0 {
		return nil, noSamples("upstream", "signal_strength")
	}

	f := &DocsisUpstreamFlattened{
		Timestamp:   u.Timestamp,
		NumChannels: len(sigs),
	}
	f.SignalStrengthMin, f.SignalStrengthMean, f.SignalStrengthMax = floatStats(sigs)
	return f, nil
}

// FlattenUpstreamOFDM summarizes the OFDMA channels in an enabled state.
func FlattenUpstreamOFDM(u DocsisUpstreamOFDM) (*DocsisUpstreamOFDMFlattened, error) {
	var enabled []DocsisUpstreamOFDMChannel
	for _, c := range u.Data {
		if c.State {
			enabled = append(enabled, c)
		}
	}
	if len(enabled) == 0 {
		return nil, fmt.Errorf("upstream ofdm: %w", ErrNoChannels)
	}

	var lineAttens, attens, powers, powers16 []float64
	for _, c := range enabled {
		if c.LineDigitalAttenuation != nil {
			lineAttens = append(lineAttens, *c.LineDigitalAttenuation)
		}
		if c.DigitalAttenuation != nil {
			attens = append(attens, *c.DigitalAttenuation)
		}
		if c.ReportPower != nil {
			powers = append(powers, *c.ReportPower)
		}
		if c.ReportPower16 != nil {
			powers16 = append(powers16, *c.ReportPower16)
		}
	}
	switch {
	case len(lineAttens) == 0:
		return nil, noSamples("upstream ofdm", "line_digital_attenuation")
	case len(attens) == 0:
		return nil, noSamples("upstream ofdm", "digital_attenuation")
	case len(powers) == 0:
		return nil, noSamples("upstream ofdm", "report_power")
	case len(powers16) == 0:
		return nil, noSamples("upstream ofdm", "report_power1_6")
	}

	f := &DocsisUpstreamOFDMFlattened{
		Timestamp:   u.Timestamp,
		NumChannels: len(enabled),
	}
	f.LineDigitalAttenuationMin, f.LineDigitalAttenuationMean, f.LineDigitalAttenuationMax = floatStats(lineAttens)
	f.DigitalAttenuationMin, f.DigitalAttenuationMean, f.DigitalAttenuationMax = floatStats(attens)
	f.ReportPowerMin, f.ReportPowerMean, f.ReportPowerMax = floatStats(powers)
	f.ReportPower16Min, f.ReportPower16Mean, f.ReportPower16Max = floatStats(powers16)
	return f, nil
}
