package coda45

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReK42/modem-info/outputs"
	"github.com/ReK42/modem-info/utils"
)

var sectionFiles = map[string]string{
	"sysinfo":    "getSysInfo.json",
	"linkstatus": "getLinkStatus.json",
	"cminit":     "getCMInit.json",
	"docsiswan":  "getCmDocsisWan.json",
	"dsinfo":     "dsinfo.json",
	"dsofdminfo": "dsofdminfo.json",
	"usinfo":     "usinfo.json",
	"usofdminfo": "usofdminfo.json",
}

func loadSections(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	merged := make(map[string]json.RawMessage, len(sectionFiles))
	for section, filename := range sectionFiles {
		data, err := os.ReadFile("test_state/" + filename)
		require.NoError(t, err, "failed to load test data: %s", filename)
		merged[section] = data
	}
	return merged
}

// loadTestStats assembles the merged stats document the same way refresh
// does: every page payload wrapped under its section key.
func loadTestStats(t *testing.T) []byte {
	t.Helper()
	stats, err := json.Marshal(loadSections(t))
	require.NoError(t, err)
	return stats
}

// statsWithSection replaces one section's payload with a literal.
func statsWithSection(t *testing.T, section, raw string) []byte {
	t.Helper()
	merged := loadSections(t)
	merged[section] = json.RawMessage(raw)
	stats, err := json.Marshal(merged)
	require.NoError(t, err)
	return stats
}

// testModem wraps Modem but prevents ClearStats from actually clearing
// This allows Prometheus e2e tests to work with pre-loaded data
type testModem struct {
	Modem
	statsBackup []byte
}

func (tm *testModem) ClearStats() {
	// Don't actually clear - restore from backup instead
	tm.Stats = tm.statsBackup
}

func newTestModem(stats []byte, fetchTime int64) *testModem {
	return &testModem{
		Modem: Modem{
			Stats:     stats,
			FetchTime: fetchTime,
		},
		statsBackup: stats,
	}
}

func TestModem_Type(t *testing.T) {
	modem := Modem{}
	assert.Equal(t, utils.TypeDocsis, modem.Type())
}

func TestModem_ClearStats(t *testing.T) {
	modem := Modem{
		Stats: []byte("test data"),
	}
	assert.NotNil(t, modem.Stats)
	modem.ClearStats()
	assert.Nil(t, modem.Stats)
}

func TestModem_ApiAddress(t *testing.T) {
	tests := []struct {
		name      string
		ipAddress string
		scheme    string
		expected  string
	}{
		{
			name:      "default IP and scheme",
			ipAddress: "",
			scheme:    "",
			expected:  "http://192.168.100.1/data",
		},
		{
			name:      "custom IP",
			ipAddress: "10.0.0.1",
			scheme:    "",
			expected:  "http://10.0.0.1/data",
		},
		{
			name:      "https",
			ipAddress: "",
			scheme:    "https",
			expected:  "https://192.168.100.1/data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modem := Modem{IPAddress: tt.ipAddress, Scheme: tt.scheme}
			assert.Equal(t, tt.expected, modem.apiAddress())
		})
	}
}

func TestModem_SystemInfo(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t), FetchedAt: 1756500000000000000}

	info, err := modem.SystemInfo()
	require.NoError(t, err)
	require.Len(t, info.Data, 1)
	assert.Equal(t, int64(1756500000000000000), info.Timestamp)

	rec := info.Data[0]
	assert.Equal(t, "1A", rec.HwVersion)
	assert.Equal(t, "7.1.1.30", rec.SwVersion)
	assert.Equal(t, "271811006139", rec.Serial)
	// MAC is canonicalized to lower case colon form
	assert.Equal(t, "68:8f:84:12:34:56", rec.RfMac)
	assert.Equal(t, "05 Days,21 Hours,33 Minutes,41 Seconds", rec.SystemUptime)
	assert.Equal(t, "Fri Aug 29, 2026, 11:05:12", rec.SystemTime)
}

func TestModem_SystemInfo_BadMacDropsRecord(t *testing.T) {
	modem := Modem{Stats: statsWithSection(t, "sysinfo",
		`[{"rfMac":"garbage","hwVersion":"1A"},{"rfMac":"68:8F:84:12:34:56","hwVersion":"1A"}]`)}

	info, err := modem.SystemInfo()
	require.Error(t, err)

	var decodeErr *utils.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "sysinfo", decodeErr.Reading)
	assert.Equal(t, "rfMac", decodeErr.Field)
	assert.Equal(t, "garbage", decodeErr.Value)

	// The sibling record still decodes
	require.Len(t, info.Data, 1)
	assert.Equal(t, "68:8f:84:12:34:56", info.Data[0].RfMac)
}

func TestModem_LinkStatus(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	link, err := modem.LinkStatus()
	require.NoError(t, err)
	require.Len(t, link.Data, 1)

	rec := link.Data[0]
	assert.True(t, rec.Status)
	require.NotNil(t, rec.Speed)
	assert.Equal(t, "1G", *rec.Speed)
	assert.Nil(t, rec.Duplex)
}

func TestModem_DocsisProvisioning(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	provisioning, err := modem.DocsisProvisioning()
	require.NoError(t, err)
	require.Len(t, provisioning.Data, 1)

	rec := provisioning.Data[0]
	assert.True(t, rec.HwInit)
	assert.True(t, rec.FindDownstream)
	assert.True(t, rec.Ranging)
	assert.True(t, rec.Dhcp)
	assert.False(t, rec.TimeOfDay) // "Skipped"
	assert.True(t, rec.DownloadConfig)
	assert.True(t, rec.Registration)
	assert.False(t, rec.EaeStatus) // "Secret"
	assert.Equal(t, "AUTH:authorized, TEK:operational", rec.BpiStatus)
	assert.True(t, rec.NetworkAccess)  // "Permitted"
	assert.True(t, rec.TrafficStatus)  // "Enable"
}

func TestModem_DocsisOverview(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	overview, err := modem.DocsisOverview()
	require.NoError(t, err)
	require.Len(t, overview.Data, 1)

	rec := overview.Data[0]
	assert.Equal(t, "bac102000106688f841234", rec.ConfigName)
	assert.True(t, rec.NetworkAccess)
	assert.Equal(t, "10.50.28.162", rec.IPAddress.String())
	assert.Equal(t, "255.255.240.0", rec.Netmask.String())
	assert.Equal(t, "10.50.16.1", rec.Gateway.String())
	expected := 6*24*time.Hour + 13*time.Hour + 30*time.Minute + 5*time.Second
	assert.Equal(t, expected, rec.LeaseDuration)
}

func TestModem_DocsisDownstream(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	downstream, err := modem.DocsisDownstream()
	require.NoError(t, err)
	require.Len(t, downstream.Data, 4)

	first := downstream.Data[0]
	assert.Equal(t, 1, first.PortID)
	require.NotNil(t, first.Frequency)
	assert.Equal(t, 447000000, *first.Frequency)
	require.NotNil(t, first.SignalStrength)
	assert.InDelta(t, 35.1, *first.SignalStrength, 1e-9)
	require.NotNil(t, first.Snr)
	assert.InDelta(t, 40.0, *first.Snr, 1e-9)
	require.NotNil(t, first.Octets)
	assert.Equal(t, int64(1000), *first.Octets)
	require.NotNil(t, first.ChannelID)
	assert.Equal(t, 9, *first.ChannelID)

	// Second channel's octets arrive as an overflow-corrected expression
	second := downstream.Data[1]
	require.NotNil(t, second.Octets)
	assert.Equal(t, int64(4294969296), *second.Octets)
}

func TestModem_DocsisDownstreamFlattened(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	f, err := modem.DocsisDownstreamFlattened()
	require.NoError(t, err)

	assert.Equal(t, 4, f.NumChannels)
	assert.InDelta(t, 34.8, f.SignalStrengthMin, 1e-9)
	assert.InDelta(t, 35.35, f.SignalStrengthMean, 1e-6)
	assert.InDelta(t, 36.0, f.SignalStrengthMax, 1e-9)
	assert.InDelta(t, 39.8, f.SnrMin, 1e-9)
	assert.InDelta(t, 40.375, f.SnrMean, 1e-6)
	assert.InDelta(t, 41.2, f.SnrMax, 1e-9)
	assert.Equal(t, int64(4294977296), f.OctetsTotal)
	assert.Equal(t, int64(1000), f.CorrectedTotal)
	assert.Equal(t, int64(100), f.CorrectedMin)
	assert.Equal(t, int64(250), f.CorrectedMean)
	assert.Equal(t, int64(400), f.CorrectedMax)
	assert.Equal(t, int64(100), f.UncorrectedTotal)
	assert.Equal(t, int64(25), f.UncorrectedMean)
}

func TestModem_DocsisDownstreamOFDM(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	ofdm, err := modem.DocsisDownstreamOFDM()
	require.NoError(t, err)
	require.Len(t, ofdm.Data, 2)

	locked := ofdm.Data[0]
	assert.Equal(t, 1, locked.Receiver)
	require.NotNil(t, locked.FftType)
	assert.Equal(t, "4K", *locked.FftType)
	require.NotNil(t, locked.Subcarr0Freq)
	assert.Equal(t, 275600000, *locked.Subcarr0Freq)
	assert.True(t, locked.PlcLock)
	assert.True(t, locked.NcpLock)
	assert.True(t, locked.Mdc1Lock)
	require.NotNil(t, locked.PlcPower)
	assert.InDelta(t, 1.799999, *locked.PlcPower, 1e-9)
	require.NotNil(t, locked.Snr)
	assert.InDelta(t, 41.5, *locked.Snr, 1e-9)

	unlocked := ofdm.Data[1]
	assert.Equal(t, 2, unlocked.Receiver)
	assert.False(t, unlocked.PlcLock)
	assert.Nil(t, unlocked.FftType)  // "NA"
	assert.Nil(t, unlocked.PlcPower) // "-"
	assert.Nil(t, unlocked.Snr)      // "NA"
}

func TestModem_DocsisDownstreamOFDMFlattened(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	f, err := modem.DocsisDownstreamOFDMFlattened()
	require.NoError(t, err)

	// Only the receiver with PLC lock counts
	assert.Equal(t, 1, f.NumChannels)
	assert.InDelta(t, 1.799999, f.PlcPowerMean, 1e-9)
	assert.InDelta(t, 41.5, f.SnrMean, 1e-9)
	assert.Equal(t, int64(555000), f.OctetsTotal)
	assert.Equal(t, int64(75), f.CorrectedTotal)
	assert.Equal(t, int64(5), f.UncorrectedTotal)
}

func TestModem_DocsisUpstream(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	upstream, err := modem.DocsisUpstream()
	require.NoError(t, err)
	require.Len(t, upstream.Data, 3)

	first := upstream.Data[0]
	assert.Equal(t, 1, first.PortID)
	require.NotNil(t, first.Frequency)
	assert.Equal(t, 39400000, *first.Frequency)
	require.NotNil(t, first.Bandwidth)
	assert.Equal(t, 6400000, *first.Bandwidth)
	require.NotNil(t, first.Modulation)
	assert.Equal(t, "64QAM", *first.Modulation)
	require.NotNil(t, first.DocsisMode)
	assert.Equal(t, "ATDMA", *first.DocsisMode)
	require.NotNil(t, first.SignalStrength)
	assert.InDelta(t, 45.25, *first.SignalStrength, 1e-9)
}

func TestModem_DocsisUpstreamFlattened(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	f, err := modem.DocsisUpstreamFlattened()
	require.NoError(t, err)

	assert.Equal(t, 3, f.NumChannels)
	assert.InDelta(t, 44.0, f.SignalStrengthMin, 1e-9)
	assert.InDelta(t, 45.333333, f.SignalStrengthMean, 1e-6)
	assert.InDelta(t, 46.75, f.SignalStrengthMax, 1e-9)
}

func TestModem_DocsisUpstreamOFDM(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	ofdma, err := modem.DocsisUpstreamOFDM()
	require.NoError(t, err)
	require.Len(t, ofdma.Data, 2)

	assert.Equal(t, 0, ofdma.Data[0].ChannelID)
	assert.False(t, ofdma.Data[0].State)
	assert.Equal(t, 1, ofdma.Data[1].ChannelID)
	assert.False(t, ofdma.Data[1].State)
}

func TestModem_DocsisUpstreamOFDMFlattened_NoEnabledChannels(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	f, err := modem.DocsisUpstreamOFDMFlattened()
	assert.Nil(t, f)
	assert.ErrorIs(t, err, utils.ErrNoChannels)
}

func TestModem_DocsisStatistics(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	stats, err := modem.DocsisStatistics()
	require.NoError(t, err)

	assert.Greater(t, stats.Timestamp, int64(0))
	assert.True(t, stats.Provisioning.NetworkAccess)
	assert.Equal(t, "10.50.28.162", stats.Overview.IPAddress.String())
	assert.Len(t, stats.Downstream, 4)
	assert.Len(t, stats.DownstreamOFDM, 2)
	assert.Len(t, stats.Upstream, 3)
	assert.Len(t, stats.UpstreamOFDM, 2)
}

func TestModem_DocsisStatisticsFlattened(t *testing.T) {
	modem := Modem{Stats: loadTestStats(t)}

	row, err := modem.DocsisStatisticsFlattened()
	require.NoError(t, err)

	_, err = time.Parse("2006-01-02T15:04:05-07:00", row.Timestamp)
	assert.NoError(t, err, "timestamp %q is not in the expected layout", row.Timestamp)

	assert.Equal(t, "34.800", row.DownSignalMin)
	assert.Equal(t, "35.350", row.DownSignalMean)
	assert.Equal(t, "36.000", row.DownSignalMax)
	assert.Equal(t, "39.800", row.DownSnrMin)
	assert.Equal(t, "40.375", row.DownSnrMean)
	assert.Equal(t, "41.200", row.DownSnrMax)
	assert.Equal(t, "1.800", row.DownPlcPower)
	assert.Equal(t, int64(555000), row.DownOctetsTotal)
	assert.Equal(t, int64(75), row.DownCorrectedsTotal)
	assert.Equal(t, int64(5), row.DownUncorrectablesTotal)
	assert.Equal(t, "45.333", row.UpSignalMean)

	// Column names and values stay aligned
	headers := row.Headers()
	values := row.Strings()
	require.Len(t, values, len(headers))
	assert.Equal(t, "timestamp", headers[0])
	assert.Equal(t, "down_octets_total", headers[8])
	assert.Equal(t, "555000", values[8])
	assert.Equal(t, "up_signal_mean", headers[11])
	assert.Equal(t, "45.333", values[11])
}

func TestModem_DocsisStatisticsFlattened_NoOfdmLock(t *testing.T) {
	modem := Modem{Stats: statsWithSection(t, "dsofdminfo",
		`[{"receive":"1","ffttype":"NA","Subcarr0freqFreq":"0","plclock":"NO","ncplock":"NO","mdc1lock":"NO","plcpower":"-","SNR":"NA","dsoctets":"0","correcteds":"0","uncorrect":"0"}]`)}

	row, err := modem.DocsisStatisticsFlattened()
	require.NoError(t, err)

	// Without a PLC lock the OFDM columns fall back to zero
	assert.Equal(t, "0.000", row.DownPlcPower)
	assert.Equal(t, int64(0), row.DownOctetsTotal)
	assert.Equal(t, int64(0), row.DownCorrectedsTotal)
	assert.Equal(t, int64(0), row.DownUncorrectablesTotal)

	// The SC-QAM columns are unaffected
	assert.Equal(t, "35.350", row.DownSignalMean)
	assert.Equal(t, "45.333", row.UpSignalMean)
}

func TestModem_DecodePartialFailure(t *testing.T) {
	modem := Modem{Stats: statsWithSection(t, "dsinfo",
		`[{"portId":"x","signalStrength":"35.0"},{"portId":"2","frequency":"453000000","signalStrength":"36.0","snr":"40.0","dsoctets":"100","correcteds":"1","uncorrect":"0","channelId":"10"}]`)}

	downstream, err := modem.DocsisDownstream()
	require.Error(t, err)

	var decodeErr *utils.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "dsinfo", decodeErr.Reading)
	assert.Equal(t, "portId", decodeErr.Field)
	assert.Equal(t, "x", decodeErr.Value)

	require.Len(t, downstream.Data, 1)
	assert.Equal(t, 2, downstream.Data[0].PortID)
}

func TestModem_SchemaMismatch(t *testing.T) {
	modem := Modem{Stats: statsWithSection(t, "dsinfo", `{"foo":"bar"}`)}

	_, err := modem.DocsisDownstream()
	require.Error(t, err)

	var schemaErr *utils.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "dsinfo", schemaErr.Reading)
}

func TestModem_MissingSection(t *testing.T) {
	modem := Modem{Stats: []byte("{}")}

	_, err := modem.SystemInfo()
	require.Error(t, err)

	var schemaErr *utils.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "sysinfo", schemaErr.Reading)
}

func TestModem_InvalidJSON(t *testing.T) {
	modem := Modem{Stats: []byte("invalid json")}

	_, err := modem.SystemInfo()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse stats JSON")
}

// Prometheus end-to-end tests using testutil
func TestPrometheusExporter_FullStats(t *testing.T) {
	modem := newTestModem(loadTestStats(t), 100)

	// Create a new registry to avoid conflicts
	registry := prometheus.NewRegistry()
	exporter := outputs.ProExporter(modem)
	registry.MustRegister(exporter)

	// Test downstream metrics exist
	metricCount, err := testutil.GatherAndCount(registry,
		"modeminfo_downstream_signal_strength",
		"modeminfo_downstream_snr",
		"modeminfo_downstream_octets_total",
		"modeminfo_downstream_correcteds_total",
		"modeminfo_downstream_uncorrectables_total",
	)
	require.NoError(t, err)
	// 4 channels * 5 metrics = 20
	assert.Equal(t, 20, metricCount)

	// OFDM: lock reported for both receivers, power and SNR only where locked
	metricCount, err = testutil.GatherAndCount(registry, "modeminfo_downstream_ofdm_plc_lock")
	require.NoError(t, err)
	assert.Equal(t, 2, metricCount)

	metricCount, err = testutil.GatherAndCount(registry,
		"modeminfo_downstream_ofdm_plc_power",
		"modeminfo_downstream_ofdm_snr",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, metricCount)

	// Test upstream metrics exist
	metricCount, err = testutil.GatherAndCount(registry,
		"modeminfo_upstream_signal_strength",
		"modeminfo_upstream_frequency",
	)
	require.NoError(t, err)
	// 3 channels * 2 metrics = 6
	assert.Equal(t, 6, metricCount)

	metricCount, err = testutil.GatherAndCount(registry,
		"modeminfo_upstream_ofdm_state",
		"modeminfo_upstream_ofdm_report_power",
	)
	require.NoError(t, err)
	// 2 channels * 2 metrics = 4
	assert.Equal(t, 4, metricCount)

	// Link, provisioning and fetchtime metrics exist
	metricCount, err = testutil.GatherAndCount(registry,
		"modeminfo_link_up",
		"modeminfo_provisioning_network_access",
		"modeminfo_provisioning_traffic_status",
		"modeminfo_fetch_timems",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, metricCount)
}

func TestPrometheusExporter_SpecificMetricValues(t *testing.T) {
	modem := newTestModem(loadTestStats(t), 100)

	registry := prometheus.NewRegistry()
	exporter := outputs.ProExporter(modem)
	registry.MustRegister(exporter)

	// Only the locked receiver exposes a PLC power reading
	expected := `
		# HELP modeminfo_downstream_ofdm_plc_power OFDM PLC power in dBmV
		# TYPE modeminfo_downstream_ofdm_plc_power gauge
		modeminfo_downstream_ofdm_plc_power{receiver="1"} 1.799999
	`
	err := testutil.CollectAndCompare(exporter, strings.NewReader(expected), "modeminfo_downstream_ofdm_plc_power")
	assert.NoError(t, err)

	expected = `
		# HELP modeminfo_upstream_ofdm_state OFDMA channel state (1=enabled, 0=disabled)
		# TYPE modeminfo_upstream_ofdm_state gauge
		modeminfo_upstream_ofdm_state{channel="0"} 0
		modeminfo_upstream_ofdm_state{channel="1"} 0
	`
	err = testutil.CollectAndCompare(exporter, strings.NewReader(expected), "modeminfo_upstream_ofdm_state")
	assert.NoError(t, err)

	// Test that metrics are valid (no lint errors)
	problems, err := testutil.GatherAndLint(registry)
	require.NoError(t, err)
	assert.Empty(t, problems, "metrics have lint problems: %v", problems)
}

func TestPrometheusExporter_FetchTimeMetric(t *testing.T) {
	modem := newTestModem(loadTestStats(t), 250)

	registry := prometheus.NewRegistry()
	exporter := outputs.ProExporter(modem)
	registry.MustRegister(exporter)

	expected := `
		# HELP modeminfo_fetch_timems Time to fetch statistics from the modem in milliseconds
		# TYPE modeminfo_fetch_timems gauge
		modeminfo_fetch_timems 250
	`
	err := testutil.CollectAndCompare(exporter, strings.NewReader(expected), "modeminfo_fetch_timems")
	assert.NoError(t, err)
}
