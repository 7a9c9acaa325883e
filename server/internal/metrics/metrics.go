package metrics

import (
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/aegismon/aegis/pkg/types"
	"github.com/aegismon/aegis/server/internal/pipeline"
)

// Metric family names.
const (
	NameWater       = "aegis_water_consumption_liters_per_hour"
	NameActivity    = "aegis_activity_index_percent"
	NameTemperature = "aegis_temperature_celsius"
	NameScore       = "aegis_health_score"
	NameFactor      = "aegis_health_score_factor"
	NameFlagged     = "aegis_channel_flagged"
	NameThreshold   = "aegis_alert_threshold"
	NameCritical    = "aegis_alert_critical"
	NameFarmSize    = "aegis_farm_size"
)

// Refresher produces snapshots with the configured settings.
// *pipeline.Pipeline satisfies it.
type Refresher interface {
	Refresh(now time.Time) (*pipeline.Snapshot, error)
}

// Handler returns an http.Handler that refreshes src and writes the result
// as Prometheus text.
func Handler(src Refresher) http.Handler {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap, err := src.Refresh(time.Now())
		if err != nil {
			slog.Error("metrics: refresh failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range Families(snap) {
			if err := enc.Encode(mf); err != nil {
				slog.Warn("metrics: encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
	})
}

// Families converts a snapshot into gauge metric families, in a fixed order.
func Families(snap *pipeline.Snapshot) []*dto.MetricFamily {
	flagged := make([]*dto.Metric, 0, len(snap.Indicators))
	for _, ind := range snap.Indicators {
		flagged = append(flagged, gaugeMetric(boolValue(ind.Flagged), "channel", ind.Channel))
	}

	return []*dto.MetricFamily{
		gauge(NameWater, "Water consumption of the latest hourly reading.",
			gaugeMetric(snap.Latest.WaterConsumption)),
		gauge(NameActivity, "Activity index of the latest hourly reading.",
			gaugeMetric(snap.Latest.ActivityIndex)),
		gauge(NameTemperature, "House temperature of the latest hourly reading.",
			gaugeMetric(snap.Latest.Temperature)),
		gauge(NameScore, "Composite health score of the latest reading.",
			gaugeMetric(snap.LatestScore)),
		gauge(NameFactor, "Normalized per-channel factor of the latest score; 1 is baseline.",
			gaugeMetric(snap.Breakdown.WaterFactor, "channel", types.ChannelWater),
			gaugeMetric(snap.Breakdown.ActivityFactor, "channel", types.ChannelActivity),
			gaugeMetric(snap.Breakdown.TemperatureFactor, "channel", types.ChannelTemperature)),
		gauge(NameFlagged, "1 when the latest reading is past the channel's dashboard limit.",
			flagged...),
		gauge(NameThreshold, "Health score below which the flock is critical.",
			gaugeMetric(float64(snap.Threshold))),
		gauge(NameCritical, "1 when the latest health score is below the alert threshold.",
			gaugeMetric(boolValue(snap.Alert.Critical()))),
		gauge(NameFarmSize, "Configured number of birds.",
			gaugeMetric(float64(snap.FarmSize))),
	}
}

func gauge(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// gaugeMetric builds one sample; labels are name/value pairs.
func gaugeMetric(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
