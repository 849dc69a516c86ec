package coda45

import (
	"net"
	"strconv"

	"github.com/Jeffail/gabs/v2"

	"github.com/ReK42/modem-info/utils"
)

// Decode tables for the CODA-45's diagnostic pages. Each reading type maps
// wire field names to setter functions built once at package init; the
// generic decode routine walks a payload's entries and consults the table.
// Optional fields degrade through the utils normalizers and never fail a
// record. Required fields are handled by a per-type key function which
// produces a DecodeError scoped to that one record.

type fieldSpec[T any] struct {
	wire string
	set  func(*T, string)
}

// decodeList decodes every entry of a reading payload. Records whose
// required fields fail to parse are dropped and reported; their siblings
// decode normally.
func decodeList[T any](reading string, payload *gabs.Container, key func(*T, *gabs.Container) error, fields []fieldSpec[T]) ([]T, []error) {
	if _, ok := payload.Data().([]interface{}); !ok {
		return nil, []error{&utils.SchemaError{Reading: reading, Reason: "expected a JSON array"}}
	}

	var records []T
	var errs []error
	for _, entry := range payload.Children() {
		var rec T
		if key != nil {
			if err := key(&rec, entry); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		for _, f := range fields {
			f.set(&rec, utils.GabsString(entry, f.wire))
		}
		records = append(records, rec)
	}
	return records, errs
}

func requiredInt(reading, field string, entry *gabs.Container, dst *int) error {
	raw := utils.GabsString(entry, field)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return &utils.DecodeError{Reading: reading, Field: field, Value: raw}
	}
	*dst = n
	return nil
}

// intFromFloat truncates a float-encoded value to an integer; some firmware
// builds report the OFDM subcarrier frequency with a decimal point.
func intFromFloat(v string) *int {
	f := utils.ToFloatOrNone(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

var systemInfoFields = []fieldSpec[utils.SystemInfoData]{
	{"hwVersion", func(r *utils.SystemInfoData, v string) { r.HwVersion = v }},
	{"swVersion", func(r *utils.SystemInfoData, v string) { r.SwVersion = v }},
	{"serialNumber", func(r *utils.SystemInfoData, v string) { r.Serial = v }},
	{"systemUptime", func(r *utils.SystemInfoData, v string) { r.SystemUptime = v }},
	{"systemTime", func(r *utils.SystemInfoData, v string) { r.SystemTime = v }},
}

func systemInfoKey(r *utils.SystemInfoData, entry *gabs.Container) error {
	raw := utils.GabsString(entry, "rfMac")
	mac, err := net.ParseMAC(raw)
	if err != nil {
		return &utils.DecodeError{Reading: "sysinfo", Field: "rfMac", Value: raw}
	}
	r.RfMac = mac.String()
	return nil
}

func decodeSystemInfo(payload *gabs.Container) ([]utils.SystemInfoData, []error) {
	return decodeList("sysinfo", payload, systemInfoKey, systemInfoFields)
}

var linkStatusFields = []fieldSpec[utils.LinkStatusData]{
	{"LinkStatus", func(r *utils.LinkStatusData, v string) { r.Status = utils.ToLinkBool(v) }},
	{"LinkSpeed", func(r *utils.LinkStatusData, v string) { r.Speed = utils.ToDashStringOrNone(v) }},
	{"LinkDuplex", func(r *utils.LinkStatusData, v string) { r.Duplex = utils.ToDashStringOrNone(v) }},
}

func decodeLinkStatus(payload *gabs.Container) ([]utils.LinkStatusData, []error) {
	return decodeList("linkstatus", payload, nil, linkStatusFields)
}

var provisioningFields = []fieldSpec[utils.DocsisProvisioningData]{
	{"hwInit", func(r *utils.DocsisProvisioningData, v string) { r.HwInit = utils.ToBool(v) }},
	{"findDownstream", func(r *utils.DocsisProvisioningData, v string) { r.FindDownstream = utils.ToBool(v) }},
	{"ranging", func(r *utils.DocsisProvisioningData, v string) { r.Ranging = utils.ToBool(v) }},
	{"dhcp", func(r *utils.DocsisProvisioningData, v string) { r.Dhcp = utils.ToBool(v) }},
	{"timeOfday", func(r *utils.DocsisProvisioningData, v string) { r.TimeOfDay = utils.ToBool(v) }},
	{"downloadCfg", func(r *utils.DocsisProvisioningData, v string) { r.DownloadConfig = utils.ToBool(v) }},
	{"registration", func(r *utils.DocsisProvisioningData, v string) { r.Registration = utils.ToBool(v) }},
	{"eaeStatus", func(r *utils.DocsisProvisioningData, v string) { r.EaeStatus = utils.ToBool(v) }},
	{"bpiStatus", func(r *utils.DocsisProvisioningData, v string) { r.BpiStatus = v }},
	{"networkAccess", func(r *utils.DocsisProvisioningData, v string) { r.NetworkAccess = utils.ToBool(v) }},
	{"trafficStatus", func(r *utils.DocsisProvisioningData, v string) { r.TrafficStatus = utils.ToBool(v) }},
}

func decodeProvisioning(payload *gabs.Container) ([]utils.DocsisProvisioningData, []error) {
	return decodeList("cminit", payload, nil, provisioningFields)
}

var overviewFields = []fieldSpec[utils.DocsisOverviewData]{
	{"Configname", func(r *utils.DocsisOverviewData, v string) { r.ConfigName = v }},
	{"ConfignameDisplay", func(r *utils.DocsisOverviewData, v string) { r.ConfigNameDisplay = v }},
	{"NetworkAccess", func(r *utils.DocsisOverviewData, v string) { r.NetworkAccess = utils.ToBool(v) }},
	{"CmIpAddress", func(r *utils.DocsisOverviewData, v string) { r.IPAddress = utils.ToIPOrNone(v) }},
	{"CmNetMask", func(r *utils.DocsisOverviewData, v string) { r.Netmask = utils.ToIPOrNone(v) }},
	{"CmGateway", func(r *utils.DocsisOverviewData, v string) { r.Gateway = utils.ToIPOrNone(v) }},
	{"CmIpLeaseDuration", func(r *utils.DocsisOverviewData, v string) { r.LeaseDuration = utils.ToDuration(v) }},
}

func decodeOverview(payload *gabs.Container) ([]utils.DocsisOverviewData, []error) {
	return decodeList("docsiswan", payload, nil, overviewFields)
}

var downstreamFields = []fieldSpec[utils.DocsisDownstreamChannel]{
	{"frequency", func(r *utils.DocsisDownstreamChannel, v string) { r.Frequency = utils.ToIntOrNone(v) }},
	{"modulation", func(r *utils.DocsisDownstreamChannel, v string) { r.Modulation = utils.ToIntOrNone(v) }},
	{"signalStrength", func(r *utils.DocsisDownstreamChannel, v string) { r.SignalStrength = utils.ToFloatOrNone(v) }},
	{"snr", func(r *utils.DocsisDownstreamChannel, v string) { r.Snr = utils.ToFloatOrNone(v) }},
	{"dsoctets", func(r *utils.DocsisDownstreamChannel, v string) { r.Octets = utils.ToBigInt(v) }},
	{"correcteds", func(r *utils.DocsisDownstreamChannel, v string) { r.Corrected = utils.ToInt64OrNone(v) }},
	{"uncorrect", func(r *utils.DocsisDownstreamChannel, v string) { r.Uncorrected = utils.ToInt64OrNone(v) }},
	{"channelId", func(r *utils.DocsisDownstreamChannel, v string) { r.ChannelID = utils.ToIntOrNone(v) }},
}

func downstreamKey(r *utils.DocsisDownstreamChannel, entry *gabs.Container) error {
	return requiredInt("dsinfo", "portId", entry, &r.PortID)
}

func decodeDownstream(payload *gabs.Container) ([]utils.DocsisDownstreamChannel, []error) {
	return decodeList("dsinfo", payload, downstreamKey, downstreamFields)
}

var downstreamOFDMFields = []fieldSpec[utils.DocsisDownstreamOFDMChannel]{
	{"ffttype", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.FftType = utils.ToStringOrNone(v) }},
	{"Subcarr0freqFreq", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.Subcarr0Freq = intFromFloat(v) }},
	{"plclock", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.PlcLock = utils.ToBool(v) }},
	{"ncplock", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.NcpLock = utils.ToBool(v) }},
	{"mdc1lock", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.Mdc1Lock = utils.ToBool(v) }},
	{"plcpower", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.PlcPower = utils.ToFloatOrNone(v) }},
	{"SNR", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.Snr = utils.ToFloatOrNone(v) }},
	{"dsoctets", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.Octets = utils.ToInt64OrNone(v) }},
	{"correcteds", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.Corrected = utils.ToInt64OrNone(v) }},
	{"uncorrect", func(r *utils.DocsisDownstreamOFDMChannel, v string) { r.Uncorrected = utils.ToInt64OrNone(v) }},
}

func downstreamOFDMKey(r *utils.DocsisDownstreamOFDMChannel, entry *gabs.Container) error {
	return requiredInt("dsofdminfo", "receive", entry, &r.Receiver)
}

func decodeDownstreamOFDM(payload *gabs.Container) ([]utils.DocsisDownstreamOFDMChannel, []error) {
	return decodeList("dsofdminfo", payload, downstreamOFDMKey, downstreamOFDMFields)
}

var upstreamFields = []fieldSpec[utils.DocsisUpstreamChannel]{
	{"frequency", func(r *utils.DocsisUpstreamChannel, v string) { r.Frequency = utils.ToIntOrNone(v) }},
	{"bandwidth", func(r *utils.DocsisUpstreamChannel, v string) { r.Bandwidth = utils.ToIntOrNone(v) }},
	{"modtype", func(r *utils.DocsisUpstreamChannel, v string) { r.Modulation = utils.ToStringOrNone(v) }},
	{"scdmaMode", func(r *utils.DocsisUpstreamChannel, v string) { r.DocsisMode = utils.ToStringOrNone(v) }},
	{"signalStrength", func(r *utils.DocsisUpstreamChannel, v string) { r.SignalStrength = utils.ToFloatOrNone(v) }},
	{"channelId", func(r *utils.DocsisUpstreamChannel, v string) { r.ChannelID = utils.ToIntOrNone(v) }},
}

func upstreamKey(r *utils.DocsisUpstreamChannel, entry *gabs.Container) error {
	return requiredInt("usinfo", "portId", entry, &r.PortID)
}

func decodeUpstream(payload *gabs.Container) ([]utils.DocsisUpstreamChannel, []error) {
	return decodeList("usinfo", payload, upstreamKey, upstreamFields)
}

var upstreamOFDMFields = []fieldSpec[utils.DocsisUpstreamOFDMChannel]{
	{"state", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.State = utils.ToBool(v) }},
	{"frequency", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.Subcarr0Freq = utils.ToIntOrNone(v) }},
	{"digAtten", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.LineDigitalAttenuation = utils.ToFloatOrNone(v) }},
	{"digAttenBo", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.DigitalAttenuation = utils.ToFloatOrNone(v) }},
	{"channelBw", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.Bandwidth = utils.ToFloatOrNone(v) }},
	{"repPower", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.ReportPower = utils.ToFloatOrNone(v) }},
	{"repPower1_6", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.ReportPower16 = utils.ToFloatOrNone(v) }},
	{"fftVal", func(r *utils.DocsisUpstreamOFDMChannel, v string) { r.FftSize = utils.ToStringOrNone(v) }},
}

func upstreamOFDMKey(r *utils.DocsisUpstreamOFDMChannel, entry *gabs.Container) error {
	return requiredInt("usofdminfo", "uschindex", entry, &r.ChannelID)
}

func decodeUpstreamOFDM(payload *gabs.Container) ([]utils.DocsisUpstreamOFDMChannel, []error) {
	return decodeList("usofdminfo", payload, upstreamOFDMKey, upstreamOFDMFields)
}
