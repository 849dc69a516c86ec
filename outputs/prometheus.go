package outputs

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ReK42/modem-info/utils"
)

type PrometheusExporter struct {
	downSignal         *prometheus.Desc
	downSnr            *prometheus.Desc
	downOctets         *prometheus.Desc
	downCorrecteds     *prometheus.Desc
	downUncorrectables *prometheus.Desc

	ofdmPlcLock        *prometheus.Desc
	ofdmPlcPower       *prometheus.Desc
	ofdmSnr            *prometheus.Desc
	ofdmOctets         *prometheus.Desc
	ofdmCorrecteds     *prometheus.Desc
	ofdmUncorrectables *prometheus.Desc

	upSignal    *prometheus.Desc
	upFrequency *prometheus.Desc

	upOfdmState *prometheus.Desc
	upOfdmPower *prometheus.Desc

	linkStatus        *prometheus.Desc
	provNetworkAccess *prometheus.Desc
	provTrafficStatus *prometheus.Desc
	fetchtime         *prometheus.Desc

	modem utils.DocsisModemDriver
}

func boolValue(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func intPtrLabel(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func (p *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	p.modem.ClearStats()

	downstream, _ := p.modem.DocsisDownstream()
	for _, c := range downstream.Data {
		labels := []string{strconv.Itoa(c.PortID), intPtrLabel(c.ChannelID)}
		if c.SignalStrength != nil {
			ch <- prometheus.MustNewConstMetric(p.downSignal, prometheus.GaugeValue, *c.SignalStrength, labels...)
		}
		if c.Snr != nil {
			ch <- prometheus.MustNewConstMetric(p.downSnr, prometheus.GaugeValue, *c.Snr, labels...)
		}
		if c.Octets != nil {
			ch <- prometheus.MustNewConstMetric(p.downOctets, prometheus.CounterValue, float64(*c.Octets), labels...)
		}
		if c.Corrected != nil {
			ch <- prometheus.MustNewConstMetric(p.downCorrecteds, prometheus.CounterValue, float64(*c.Corrected), labels...)
		}
		if c.Uncorrected != nil {
			ch <- prometheus.MustNewConstMetric(p.downUncorrectables, prometheus.CounterValue, float64(*c.Uncorrected), labels...)
		}
	}

	ofdm, _ := p.modem.DocsisDownstreamOFDM()
	for _, c := range ofdm.Data {
		labels := []string{strconv.Itoa(c.Receiver)}
		ch <- prometheus.MustNewConstMetric(p.ofdmPlcLock, prometheus.GaugeValue, boolValue(c.PlcLock), labels...)
		if c.PlcPower != nil {
			ch <- prometheus.MustNewConstMetric(p.ofdmPlcPower, prometheus.GaugeValue, *c.PlcPower, labels...)
		}
		if c.Snr != nil {
			ch <- prometheus.MustNewConstMetric(p.ofdmSnr, prometheus.GaugeValue, *c.Snr, labels...)
		}
		if c.Octets != nil {
			ch <- prometheus.MustNewConstMetric(p.ofdmOctets, prometheus.CounterValue, float64(*c.Octets), labels...)
		}
		if c.Corrected != nil {
			ch <- prometheus.MustNewConstMetric(p.ofdmCorrecteds, prometheus.CounterValue, float64(*c.Corrected), labels...)
		}
		if c.Uncorrected != nil {
			ch <- prometheus.MustNewConstMetric(p.ofdmUncorrectables, prometheus.CounterValue, float64(*c.Uncorrected), labels...)
		}
	}

	upstream, _ := p.modem.DocsisUpstream()
	for _, c := range upstream.Data {
		labels := []string{strconv.Itoa(c.PortID), intPtrLabel(c.ChannelID)}
		if c.SignalStrength != nil {
			ch <- prometheus.MustNewConstMetric(p.upSignal, prometheus.GaugeValue, *c.SignalStrength, labels...)
		}
		if c.Frequency != nil {
			ch <- prometheus.MustNewConstMetric(p.upFrequency, prometheus.GaugeValue, float64(*c.Frequency), labels...)
		}
	}

	ofdma, _ := p.modem.DocsisUpstreamOFDM()
	for _, c := range ofdma.Data {
		labels := []string{strconv.Itoa(c.ChannelID)}
		ch <- prometheus.MustNewConstMetric(p.upOfdmState, prometheus.GaugeValue, boolValue(c.State), labels...)
		if c.ReportPower != nil {
			ch <- prometheus.MustNewConstMetric(p.upOfdmPower, prometheus.GaugeValue, *c.ReportPower, labels...)
		}
	}

	if link, err := p.modem.LinkStatus(); err == nil && len(link.Data) > 0 {
		ch <- prometheus.MustNewConstMetric(p.linkStatus, prometheus.GaugeValue, boolValue(link.Data[0].Status))
	}

	if provisioning, err := p.modem.DocsisProvisioning(); err == nil && len(provisioning.Data) > 0 {
		ch <- prometheus.MustNewConstMetric(p.provNetworkAccess, prometheus.GaugeValue, boolValue(provisioning.Data[0].NetworkAccess))
		ch <- prometheus.MustNewConstMetric(p.provTrafficStatus, prometheus.GaugeValue, boolValue(provisioning.Data[0].TrafficStatus))
	}

	ch <- prometheus.MustNewConstMetric(
		p.fetchtime,
		prometheus.GaugeValue,
		float64(p.modem.FetchTimeMs()),
	)
}

func (p *PrometheusExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.downSignal
	ch <- p.downSnr
	ch <- p.downOctets
	ch <- p.downCorrecteds
	ch <- p.downUncorrectables
	ch <- p.ofdmPlcLock
	ch <- p.ofdmPlcPower
	ch <- p.ofdmSnr
	ch <- p.ofdmOctets
	ch <- p.ofdmCorrecteds
	ch <- p.ofdmUncorrectables
	ch <- p.upSignal
	ch <- p.upFrequency
	ch <- p.upOfdmState
	ch <- p.upOfdmPower
	ch <- p.linkStatus
	ch <- p.provNetworkAccess
	ch <- p.provTrafficStatus
	ch <- p.fetchtime
}

func ProExporter(modem utils.DocsisModemDriver) *PrometheusExporter {
	namespace := "modeminfo"
	downLabels := []string{"port", "channel"}
	ofdmLabels := []string{"receiver"}
	upLabels := []string{"port", "channel"}
	upOfdmLabels := []string{"channel"}

	return &PrometheusExporter{
		modem: modem,
		downSignal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream", "signal_strength"),
			"Downstream signal strength in dBmV",
			downLabels,
			nil,
		),
		downSnr: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream", "snr"),
			"Downstream SNR in dB",
			downLabels,
			nil,
		),
		downOctets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream", "octets_total"),
			"Downstream octets received per channel",
			downLabels,
			nil,
		),
		downCorrecteds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream", "correcteds_total"),
			"Corrected errors per channel",
			downLabels,
			nil,
		),
		downUncorrectables: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream", "uncorrectables_total"),
			"Uncorrectable errors per channel",
			downLabels,
			nil,
		),
		ofdmPlcLock: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream_ofdm", "plc_lock"),
			"OFDM PLC lock status (1=locked, 0=unlocked)",
			ofdmLabels,
			nil,
		),
		ofdmPlcPower: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream_ofdm", "plc_power"),
			"OFDM PLC power in dBmV",
			ofdmLabels,
			nil,
		),
		ofdmSnr: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream_ofdm", "snr"),
			"OFDM SNR in dB",
			ofdmLabels,
			nil,
		),
		ofdmOctets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream_ofdm", "octets_total"),
			"OFDM octets received per receiver",
			ofdmLabels,
			nil,
		),
		ofdmCorrecteds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream_ofdm", "correcteds_total"),
			"OFDM corrected errors per receiver",
			ofdmLabels,
			nil,
		),
		ofdmUncorrectables: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "downstream_ofdm", "uncorrectables_total"),
			"OFDM uncorrectable errors per receiver",
			ofdmLabels,
			nil,
		),
		upSignal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "upstream", "signal_strength"),
			"Upstream signal strength in dBmV",
			upLabels,
			nil,
		),
		upFrequency: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "upstream", "frequency"),
			"Upstream frequency in Hz",
			upLabels,
			nil,
		),
		upOfdmState: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "upstream_ofdm", "state"),
			"OFDMA channel state (1=enabled, 0=disabled)",
			upOfdmLabels,
			nil,
		),
		upOfdmPower: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "upstream_ofdm", "report_power"),
			"OFDMA reported power in dBmV",
			upOfdmLabels,
			nil,
		),
		linkStatus: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "link", "up"),
			"Ethernet link status (1=up, 0=down)",
			[]string{},
			nil,
		),
		provNetworkAccess: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "provisioning", "network_access"),
			"DOCSIS network access permitted",
			[]string{},
			nil,
		),
		provTrafficStatus: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "provisioning", "traffic_status"),
			"DOCSIS traffic enabled",
			[]string{},
			nil,
		),
		fetchtime: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "fetch", "timems"),
			"Time to fetch statistics from the modem in milliseconds",
			[]string{},
			nil,
		),
	}
}

func Prometheus(modem utils.DocsisModemDriver, port int) {
	exporter := ProExporter(modem)
	prometheus.MustRegister(exporter)

	http.Handle("/metrics", promhttp.Handler())
	logrus.Infof("Starting Prometheus exporter on port %d", port)
	logrus.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), nil))
}
