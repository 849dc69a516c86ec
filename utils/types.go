package utils

import (
	"net"
	"strconv"
	"time"
)

// SystemInfoData is one entry from /data/getSysInfo.asp.
type SystemInfoData struct {
	HwVersion    string `json:"hw_version"`
	SwVersion    string `json:"sw_version"`
	Serial       string `json:"serial"`
	RfMac        string `json:"rf_mac"`
	SystemUptime string `json:"system_uptime"`
	SystemTime   string `json:"system_time"`
}

type SystemInfo struct {
	Timestamp int64            `json:"timestamp"`
	Data      []SystemInfoData `json:"data"`
}

// LinkStatusData is one entry from /data/getLinkStatus.asp.
type LinkStatusData struct {
	Status bool    `json:"status"`
	Speed  *string `json:"speed"`
	Duplex *string `json:"duplex"`
}

type LinkStatus struct {
	Timestamp int64            `json:"timestamp"`
	Data      []LinkStatusData `json:"data"`
}

// DocsisProvisioningData is one entry from /data/getCMInit.asp. The modem
// reports each provisioning step as a free-form status string ("Success",
// "Permitted", "Enable", ...) which normalizes to a plain bool.
type DocsisProvisioningData struct {
	HwInit         bool   `json:"hw_init"`
	FindDownstream bool   `json:"find_downstream"`
	Ranging        bool   `json:"ranging"`
	Dhcp           bool   `json:"dhcp"`
	TimeOfDay      bool   `json:"time_of_day"`
	DownloadConfig bool   `json:"download_config"`
	Registration   bool   `json:"registration"`
	EaeStatus      bool   `json:"eae_status"`
	BpiStatus      string `json:"bpi_status"`
	NetworkAccess  bool   `json:"network_access"`
	TrafficStatus  bool   `json:"traffic_status"`
}

type DocsisProvisioning struct {
	Timestamp int64                    `json:"timestamp"`
	Data      []DocsisProvisioningData `json:"data"`
}

// DocsisOverviewData is one entry from /data/getCmDocsisWan.asp.
type DocsisOverviewData struct {
	ConfigName        string        `json:"config_name"`
	ConfigNameDisplay string        `json:"config_name_display"`
	NetworkAccess     bool          `json:"network_access"`
	IPAddress         net.IP        `json:"ip_address"`
	Netmask           net.IP        `json:"netmask"`
	Gateway           net.IP        `json:"gateway"`
	LeaseDuration     time.Duration `json:"lease_duration"`
}

type DocsisOverview struct {
	Timestamp int64                `json:"timestamp"`
	Data      []DocsisOverviewData `json:"data"`
}

// DocsisDownstreamChannel is one SC-QAM channel from /data/dsinfo.asp.
// Optional fields are nil when the modem reported a sentinel or garbage.
type DocsisDownstreamChannel struct {
	PortID         int      `json:"port_id"`
	Frequency      *int     `json:"frequency"`
	Modulation     *int     `json:"modulation"`
	SignalStrength *float64 `json:"signal_strength"`
	Snr            *float64 `json:"snr"`
	Octets         *int64   `json:"octets"`
	Corrected      *int64   `json:"corrected"`
	Uncorrected    *int64   `json:"uncorrected"`
	ChannelID      *int     `json:"channel_id"`
}

type DocsisDownstream struct {
	Timestamp int64                     `json:"timestamp"`
	Data      []DocsisDownstreamChannel `json:"data"`
}

// DocsisDownstreamOFDMChannel is one OFDM receiver from /data/dsofdminfo.asp.
type DocsisDownstreamOFDMChannel struct {
	Receiver     int      `json:"receiver"`
	FftType      *string  `json:"fft_type"`
	Subcarr0Freq *int     `json:"subcarrier_0_frequency"`
	PlcLock      bool     `json:"plc_lock"`
	NcpLock      bool     `json:"ncp_lock"`
	Mdc1Lock     bool     `json:"mdc1_lock"`
	PlcPower     *float64 `json:"plc_power"`
	Snr          *float64 `json:"snr"`
	Octets       *int64   `json:"octets"`
	Corrected    *int64   `json:"corrected"`
	Uncorrected  *int64   `json:"uncorrected"`
}

type DocsisDownstreamOFDM struct {
	Timestamp int64                         `json:"timestamp"`
	Data      []DocsisDownstreamOFDMChannel `json:"data"`
}

// DocsisUpstreamChannel is one SC-QAM channel from /data/usinfo.asp.
type DocsisUpstreamChannel struct {
	PortID         int      `json:"port_id"`
	Frequency      *int     `json:"frequency"`
	Bandwidth      *int     `json:"bandwidth"`
	Modulation     *string  `json:"modulation"`
	DocsisMode     *string  `json:"docsis_mode"`
	SignalStrength *float64 `json:"signal_strength"`
	ChannelID      *int     `json:"channel_id"`
}

type DocsisUpstream struct {
	Timestamp int64                   `json:"timestamp"`
	Data      []DocsisUpstreamChannel `json:"data"`
}

// DocsisUpstreamOFDMChannel is one OFDMA channel from /data/usofdminfo.asp.
type DocsisUpstreamOFDMChannel struct {
	ChannelID              int      `json:"channel_id"`
	State                  bool     `json:"state"`
	Subcarr0Freq           *int     `json:"subcarrier_0_frequency"`
	LineDigitalAttenuation *float64 `json:"line_digital_attenuation"`
	DigitalAttenuation     *float64 `json:"digital_attenuation"`
	Bandwidth              *float64 `json:"bandwidth"`
	ReportPower            *float64 `json:"report_power"`
	ReportPower16          *float64 `json:"report_power1_6"`
	FftSize                *string  `json:"fft_size"`
}

type DocsisUpstreamOFDM struct {
	Timestamp int64                       `json:"timestamp"`
	Data      []DocsisUpstreamOFDMChannel `json:"data"`
}

// DocsisStatistics bundles the latest reading of every DOCSIS endpoint under
// one nominal timestamp. Each constituent was fetched independently, so a
// small capture-time skew between them is expected.
type DocsisStatistics struct {
	Timestamp      int64                         `json:"timestamp"`
	Provisioning   DocsisProvisioningData        `json:"docsis_provisioning"`
	Overview       DocsisOverviewData            `json:"docsis_overview"`
	Downstream     []DocsisDownstreamChannel     `json:"docsis_downstream"`
	DownstreamOFDM []DocsisDownstreamOFDMChannel `json:"docsis_downstream_ofdm"`
	Upstream       []DocsisUpstreamChannel       `json:"docsis_upstream"`
	UpstreamOFDM   []DocsisUpstreamOFDMChannel   `json:"docsis_upstream_ofdm"`
}

// DocsisDownstreamFlattened summarizes the SC-QAM downstream channel list.
type DocsisDownstreamFlattened struct {
	Timestamp          int64   `json:"timestamp"`
	NumChannels        int     `json:"num_channels"`
	SignalStrengthMin  float64 `json:"signal_strength_min"`
	SignalStrengthMean float64 `json:"signal_strength_mean"`
	SignalStrengthMax  float64 `json:"signal_strength_max"`
	SnrMin             float64 `json:"snr_min"`
	SnrMean            float64 `json:"snr_mean"`
	SnrMax             float64 `json:"snr_max"`
	OctetsTotal        int64   `json:"octets_total"`
	CorrectedTotal     int64   `json:"corrected_total"`
	CorrectedMin       int64   `json:"corrected_min"`
	CorrectedMean      int64   `json:"corrected_mean"`
	CorrectedMax       int64   `json:"corrected_max"`
	UncorrectedTotal   int64   `json:"uncorrected_total"`
	UncorrectedMin     int64   `json:"uncorrected_min"`
	UncorrectedMean    int64   `json:"uncorrected_mean"`
	UncorrectedMax     int64   `json:"uncorrected_max"`
}

// DocsisDownstreamOFDMFlattened summarizes OFDM receivers with PLC lock.
type DocsisDownstreamOFDMFlattened struct {
	Timestamp        int64   `json:"timestamp"`
	NumChannels      int     `json:"num_channels"`
	PlcPowerMin      float64 `json:"plc_power_min"`
	PlcPowerMean     float64 `json:"plc_power_mean"`
	PlcPowerMax      float64 `json:"plc_power_max"`
	SnrMin           float64 `json:"snr_min"`
	SnrMean          float64 `json:"snr_mean"`
	SnrMax           float64 `json:"snr_max"`
	OctetsTotal      int64   `json:"octets_total"`
	CorrectedTotal   int64   `json:"corrected_total"`
	CorrectedMin     int64   `json:"corrected_min"`
	CorrectedMean    int64   `json:"corrected_mean"`
	CorrectedMax     int64   `json:"corrected_max"`
	UncorrectedTotal int64   `json:"uncorrected_total"`
	UncorrectedMin   int64   `json:"uncorrected_min"`
	UncorrectedMean  int64   `json:"uncorrected_mean"`
	UncorrectedMax   int64   `json:"uncorrected_max"`
}

// DocsisUpstreamFlattened summarizes the SC-QAM upstream channel list.
type DocsisUpstreamFlattened struct {
	Timestamp          int64   `json:"timestamp"`
	NumChannels        int     `json:"num_channels"`
	SignalStrengthMin  float64 `json:"signal_strength_min"`
	SignalStrengthMean float64 `json:"signal_strength_mean"`
	SignalStrengthMax  float64 `json:"signal_strength_max"`
}

// DocsisUpstreamOFDMFlattened summarizes OFDMA channels in an enabled state.
type DocsisUpstreamOFDMFlattened struct {
	Timestamp                  int64   `json:"timestamp"`
	NumChannels                int     `json:"num_channels"`
	LineDigitalAttenuationMin  float64 `json:"line_digital_attenuation_min"`
	LineDigitalAttenuationMean float64 `json:"line_digital_attenuation_mean"`
	LineDigitalAttenuationMax  float64 `json:"line_digital_attenuation_max"`
	DigitalAttenuationMin      float64 `json:"digital_attenuation_min"`
	DigitalAttenuationMean     float64 `json:"digital_attenuation_mean"`
	DigitalAttenuationMax      float64 `json:"digital_attenuation_max"`
	ReportPowerMin             float64 `json:"report_power_min"`
	ReportPowerMean            float64 `json:"report_power_mean"`
	ReportPowerMax             float64 `json:"report_power_max"`
	ReportPower16Min           float64 `json:"report_power1_6_min"`
	ReportPower16Mean          float64 `json:"report_power1_6_mean"`
	ReportPower16Max           float64 `json:"report_power1_6_max"`
}

// FlattenedRow is the single display/storage row emitted once per poll.
// Field declaration order is the column order; it must never change or
// CSV headers shift under existing data.
type FlattenedRow struct {
	Timestamp               string `json:"timestamp"`
	DownSignalMin           string `json:"down_signal_min"`
	DownSignalMean          string `json:"down_signal_mean"`
	DownSignalMax           string `json:"down_signal_max"`
	DownSnrMin              string `json:"down_snr_min"`
	DownSnrMean             string `json:"down_snr_mean"`
	DownSnrMax              string `json:"down_snr_max"`
	DownPlcPower            string `json:"down_plc_power"`
	DownOctetsTotal         int64  `json:"down_octets_total"`
	DownCorrectedsTotal     int64  `json:"down_correcteds_total"`
	DownUncorrectablesTotal int64  `json:"down_uncorrectables_total"`
	UpSignalMean            string `json:"up_signal_mean"`
}

// Headers returns the row's column names in emission order.
func (FlattenedRow) Headers() []string {
	return []string{
		"timestamp",
		"down_signal_min",
		"down_signal_mean",
		"down_signal_max",
		"down_snr_min",
		"down_snr_mean",
		"down_snr_max",
		"down_plc_power",
		"down_octets_total",
		"down_correcteds_total",
		"down_uncorrectables_total",
		"up_signal_mean",
	}
}

// Strings returns the row's values in emission order, integer totals
// rendered in base 10.
func (r FlattenedRow) Strings() []string {
	return []string{
		r.Timestamp,
		r.DownSignalMin,
		r.DownSignalMean,
		r.DownSignalMax,
		r.DownSnrMin,
		r.DownSnrMean,
		r.DownSnrMax,
		r.DownPlcPower,
		strconv.FormatInt(r.DownOctetsTotal, 10),
		strconv.FormatInt(r.DownCorrectedsTotal, 10),
		strconv.FormatInt(r.DownUncorrectablesTotal, 10),
		r.UpSignalMean,
	}
}

// ModemDriver is the capability surface every modem driver exposes.
type ModemDriver interface {
	Address() string
	Type() string
	ClearStats()
	SystemInfo() (SystemInfo, error)
	LinkStatus() (LinkStatus, error)
}

// DocsisModemDriver is the capability surface of a DOCSIS modem driver.
// A future vendor driver only needs to satisfy this interface for the
// outputs and the CLI to pick it up unchanged.
type DocsisModemDriver interface {
	ModemDriver
	DocsisProvisioning() (DocsisProvisioning, error)
	DocsisOverview() (DocsisOverview, error)
	DocsisDownstream() (DocsisDownstream, error)
	DocsisDownstreamFlattened() (*DocsisDownstreamFlattened, error)
	DocsisDownstreamOFDM() (DocsisDownstreamOFDM, error)
	DocsisDownstreamOFDMFlattened() (*DocsisDownstreamOFDMFlattened, error)
	DocsisUpstream() (DocsisUpstream, error)
	DocsisUpstreamFlattened() (*DocsisUpstreamFlattened, error)
	DocsisUpstreamOFDM() (DocsisUpstreamOFDM, error)
	DocsisUpstreamOFDMFlattened() (*DocsisUpstreamOFDMFlattened, error)
	DocsisStatistics() (DocsisStatistics, error)
	DocsisStatisticsFlattened() (FlattenedRow, error)
	FetchTimeMs() int64
}

const (
	TypeDocsis = "DOCSIS"
)
