// Package coda45 implements a driver for the Hitron CODA-45 DOCSIS 3.1
// cable modem. The modem serves one loosely-typed JSON array per diagnostic
// page under /data/; almost every value arrives as a string with the
// firmware's own ad-hoc encoding.
package coda45

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Jeffail/gabs/v2"
	jsonpatch "github.com/evanphx/json-patch"

	"github.com/ReK42/modem-info/utils"
)

const defaultIPAddress = "192.168.100.1"

type Modem struct {
	IPAddress string
	Scheme    string
	Stats     []byte
	FetchTime int64
	FetchedAt int64
}

// endpoints lists every diagnostic page and the section key its payload is
// stored under in the merged stats document.
var endpoints = []struct {
	section string
	page    string
}{
	{"sysinfo", "getSysInfo.asp"},
	{"linkstatus", "getLinkStatus.asp"},
	{"cminit", "getCMInit.asp"},
	{"docsiswan", "getCmDocsisWan.asp"},
	{"dsinfo", "dsinfo.asp"},
	{"dsofdminfo", "dsofdminfo.asp"},
	{"usinfo", "usinfo.asp"},
	{"usofdminfo", "usofdminfo.asp"},
}

func (cm *Modem) Address() string {
	if cm.IPAddress == "" {
		cm.IPAddress = defaultIPAddress
	}
	return cm.IPAddress
}

func (cm *Modem) Type() string {
	return utils.TypeDocsis
}

func (cm *Modem) ClearStats() {
	cm.Stats = nil
}

func (cm *Modem) FetchTimeMs() int64 {
	return cm.FetchTime
}

func (cm *Modem) apiAddress() string {
	scheme := cm.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/data", scheme, cm.Address())
}

// refresh fetches every diagnostic page concurrently and merges the
// payloads, wrapped under their section keys, into one cached raw document.
// The firmware aggressively caches page output, so each request carries the
// same millisecond cache-buster the stock web UI sends.
func (cm *Modem) refresh() error {
	if cm.Stats != nil {
		return nil
	}

	cacheBuster := strconv.FormatInt(time.Now().UnixMilli(), 10)
	urls := make([]string, len(endpoints))
	for i, e := range endpoints {
		urls[i] = fmt.Sprintf("%s/%s?_=%s", cm.apiAddress(), e.page, cacheBuster)
	}

	timeStart := time.Now().UnixMilli()
	results := utils.BoundedParallelGet(urls, 4)
	cm.FetchTime = time.Now().UnixMilli() - timeStart

	stats := []byte("{}")
	for _, result := range results {
		if result.Err != nil {
			return result.Err
		}
		payload, err := gabs.ParseJSON(result.Body)
		if err != nil {
			return &utils.SchemaError{Reading: endpoints[result.Index].section, Reason: err.Error()}
		}
		wrapped := gabs.New()
		if _, err := wrapped.Set(payload.Data(), endpoints[result.Index].section); err != nil {
			return err
		}
		stats, err = jsonpatch.MergeMergePatches(stats, wrapped.Bytes())
		if err != nil {
			return err
		}
	}

	cm.Stats = stats
	cm.FetchedAt = time.Now().UnixNano()
	return nil
}

// section returns one reading's raw payload from the cached document,
// fetching from the modem first if the cache is empty.
func (cm *Modem) section(name string) (*gabs.Container, error) {
	if err := cm.refresh(); err != nil {
		return nil, err
	}
	doc, err := gabs.ParseJSON(cm.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stats JSON: %w", err)
	}
	sec := doc.Path(name)
	if sec == nil {
		return nil, &utils.SchemaError{Reading: name, Reason: "reading missing from payload"}
	}
	return sec, nil
}

// Record-scoped decode failures are joined into the returned error while the
// surviving records are still returned; a caller that only needs the records
// can keep going when Data is non-empty.

func (cm *Modem) SystemInfo() (utils.SystemInfo, error) {
	sec, err := cm.section("sysinfo")
	if err != nil {
		return utils.SystemInfo{}, err
	}
	data, errs := decodeSystemInfo(sec)
	return utils.SystemInfo{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) LinkStatus() (utils.LinkStatus, error) {
	sec, err := cm.section("linkstatus")
	if err != nil {
		return utils.LinkStatus{}, err
	}
	data, errs := decodeLinkStatus(sec)
	return utils.LinkStatus{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisProvisioning() (utils.DocsisProvisioning, error) {
	sec, err := cm.section("cminit")
	if err != nil {
		return utils.DocsisProvisioning{}, err
	}
	data, errs := decodeProvisioning(sec)
	return utils.DocsisProvisioning{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisOverview() (utils.DocsisOverview, error) {
	sec, err := cm.section("docsiswan")
	if err != nil {
		return utils.DocsisOverview{}, err
	}
	data, errs := decodeOverview(sec)
	return utils.DocsisOverview{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisDownstream() (utils.DocsisDownstream, error) {
	sec, err := cm.section("dsinfo")
	if err != nil {
		return utils.DocsisDownstream{}, err
	}
	data, errs := decodeDownstream(sec)
	return utils.DocsisDownstream{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisDownstreamFlattened() (*utils.DocsisDownstreamFlattened, error) {
	reading, err := cm.DocsisDownstream()
	if err != nil && len(reading.Data) == 0 {
		return nil, err
	}
	return utils.FlattenDownstream(reading)
}

func (cm *Modem) DocsisDownstreamOFDM() (utils.DocsisDownstreamOFDM, error) {
	sec, err := cm.section("dsofdminfo")
	if err != nil {
		return utils.DocsisDownstreamOFDM{}, err
	}
	data, errs := decodeDownstreamOFDM(sec)
	return utils.DocsisDownstreamOFDM{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisDownstreamOFDMFlattened() (*utils.DocsisDownstreamOFDMFlattened, error) {
	reading, err := cm.DocsisDownstreamOFDM()
	if err != nil && len(reading.Data) == 0 {
		return nil, err
	}
	return utils.FlattenDownstreamOFDM(reading)
}

func (cm *Modem) DocsisUpstream() (utils.DocsisUpstream, error) {
	sec, err := cm.section("usinfo")
	if err != nil {
		return utils.DocsisUpstream{}, err
	}
	data, errs := decodeUpstream(sec)
	return utils.DocsisUpstream{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisUpstreamFlattened() (*utils.DocsisUpstreamFlattened, error) {
	reading, err := cm.DocsisUpstream()
	if err != nil && len(reading.Data) == 0 {
		return nil, err
	}
	return utils.FlattenUpstream(reading)
}

func (cm *Modem) DocsisUpstreamOFDM() (utils.DocsisUpstreamOFDM, error) {
	sec, err := cm.section("usofdminfo")
	if err != nil {
		return utils.DocsisUpstreamOFDM{}, err
	}
	data, errs := decodeUpstreamOFDM(sec)
	return utils.DocsisUpstreamOFDM{Timestamp: cm.FetchedAt, Data: data}, errors.Join(errs...)
}

func (cm *Modem) DocsisUpstreamOFDMFlattened() (*utils.DocsisUpstreamOFDMFlattened, error) {
	reading, err := cm.DocsisUpstreamOFDM()
	if err != nil && len(reading.Data) == 0 {
		return nil, err
	}
	return utils.FlattenUpstreamOFDM(reading)
}

// DocsisStatistics bundles the latest reading of every DOCSIS endpoint under
// one nominal timestamp.
func (cm *Modem) DocsisStatistics() (utils.DocsisStatistics, error) {
	provisioning, err := cm.DocsisProvisioning()
	if err != nil && len(provisioning.Data) == 0 {
		return utils.DocsisStatistics{}, err
	}
	if len(provisioning.Data) == 0 {
		return utils.DocsisStatistics{}, &utils.SchemaError{Reading: "cminit", Reason: "no records"}
	}
	overview, err := cm.DocsisOverview()
	if err != nil && len(overview.Data) == 0 {
		return utils.DocsisStatistics{}, err
	}
	if len(overview.Data) == 0 {
		return utils.DocsisStatistics{}, &utils.SchemaError{Reading: "docsiswan", Reason: "no records"}
	}
	downstream, err := cm.DocsisDownstream()
	if err != nil && len(downstream.Data) == 0 {
		return utils.DocsisStatistics{}, err
	}
	downstreamOFDM, err := cm.DocsisDownstreamOFDM()
	if err != nil && len(downstreamOFDM.Data) == 0 {
		return utils.DocsisStatistics{}, err
	}
	upstream, err := cm.DocsisUpstream()
	if err != nil && len(upstream.Data) == 0 {
		return utils.DocsisStatistics{}, err
	}
	upstreamOFDM, err := cm.DocsisUpstreamOFDM()
	if err != nil && len(upstreamOFDM.Data) == 0 {
		return utils.DocsisStatistics{}, err
	}

	return utils.DocsisStatistics{
		Timestamp:      time.Now().UnixNano(),
		Provisioning:   provisioning.Data[0],
		Overview:       overview.Data[0],
		Downstream:     downstream.Data,
		DownstreamOFDM: downstreamOFDM.Data,
		Upstream:       upstream.Data,
		UpstreamOFDM:   upstreamOFDM.Data,
	}, nil
}

// DocsisStatisticsFlattened composes the single display row for one poll.
// A missing OFDM lock is an expected condition, not a failure: the OFDM
// columns fall back to zero so the row never reports a false reading.
func (cm *Modem) DocsisStatisticsFlattened() (utils.FlattenedRow, error) {
	downstream, err := cm.DocsisDownstreamFlattened()
	if err != nil {
		return utils.FlattenedRow{}, err
	}
	downstreamOFDM, err := cm.DocsisDownstreamOFDMFlattened()
	if err != nil && !errors.Is(err, utils.ErrNoChannels) {
		return utils.FlattenedRow{}, err
	}
	upstream, err := cm.DocsisUpstreamFlattened()
	if err != nil {
		return utils.FlattenedRow{}, err
	}

	plcPowerMean := 0.0
	var octetsTotal, correctedTotal, uncorrectedTotal int64
	if downstreamOFDM != nil {
		plcPowerMean = downstreamOFDM.PlcPowerMean
		octetsTotal = downstreamOFDM.OctetsTotal
		correctedTotal = downstreamOFDM.CorrectedTotal
		uncorrectedTotal = downstreamOFDM.UncorrectedTotal
	}

	return utils.FlattenedRow{
		Timestamp:               time.Now().Format("2006-01-02T15:04:05-07:00"),
		DownSignalMin:           fmt.Sprintf("%.3f", downstream.SignalStrengthMin),
		DownSignalMean:          fmt.Sprintf("%.3f", downstream.SignalStrengthMean),
		DownSignalMax:           fmt.Sprintf("%.3f", downstream.SignalStrengthMax),
		DownSnrMin:              fmt.Sprintf("%.3f", downstream.SnrMin),
		DownSnrMean:             fmt.Sprintf("%.3f", downstream.SnrMean),
		DownSnrMax:              fmt.Sprintf("%.3f", downstream.SnrMax),
		DownPlcPower:            fmt.Sprintf("%.3f", plcPowerMean),
		DownOctetsTotal:         octetsTotal,
		DownCorrectedsTotal:     correctedTotal,
		DownUncorrectablesTotal: uncorrectedTotal,
		UpSignalMean:            fmt.Sprintf("%.3f", upstream.SignalStrengthMean),
	}, nil
}
