package stats

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/model"
)

const (
	DefaultRecentEvents = 5
	MaxRecentEvents     = 100
)

// criticalReasons are substrings of warning event reasons which are raised as critical alerts.
var criticalReasons = []string{"Failed", "FailedScheduling", "Unhealthy", "BackOff", "OOMKilled", "Evicted", "FailedMount"}

type ClusterMeta struct {
	ID               uuid.UUID
	Name             string
	ConnectionStatus model.ConnectionStatus
}

type Options struct {
	// RecentEvents is the number of most recent events returned. It's capped at MaxRecentEvents.
	RecentEvents int
}

// DashboardStats are the counts of a teams clusters.
// swagger:model
type DashboardStats struct {
	Clusters     ClusterCounts    `json:"clusters"`
	Nodes        NodeCounts       `json:"nodes"`
	Pods         PodCounts        `json:"pods"`
	Deployments  DeploymentCounts `json:"deployments"`
	Namespaces   int              `json:"namespaces"`
	Events       EventCounts      `json:"events"`
	Alerts       AlertCounts      `json:"alerts"`
	RecentEvents []RecentEvent    `json:"recentEvents"`
	// Degraded are the clusters whose snapshot could only partially or not at all be read.
	Degraded []uuid.UUID `json:"degraded"`
}

type ClusterCounts struct {
	Total        int `json:"total"`
	Connected    int `json:"connected"`
	Disconnected int `json:"disconnected"`
	Error        int `json:"error"`
}

type NodeCounts struct {
	Total    int `json:"total"`
	Ready    int `json:"ready"`
	NotReady int `json:"notReady"`
}

type PodCounts struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Succeeded int `json:"succeeded"`
}

type DeploymentCounts struct {
	Total int `json:"total"`
	Ready int `json:"ready"`
}

type EventCounts struct {
	Total   int `json:"total"`
	Warning int `json:"warning"`
	Normal  int `json:"normal"`
}

type AlertCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
}

type RecentEvent struct {
	ClusterID   uuid.UUID `json:"clusterId"`
	ClusterName string    `json:"clusterName"`
	model.EventInfo
}

// Aggregate reduces the snapshots of a teams clusters to dashboard counts. Counts of a snapshot are
// taken from its summary if present and derived from its nodes, pods and events otherwise. Alerts
// are always derived from the events. Snapshots which can't be decoded contribute nothing and are
// reported as degraded. The result doesn't depend on the order of clusters.
func Aggregate(snapshots map[uuid.UUID]json.RawMessage, clusters []ClusterMeta, opts Options) DashboardStats {
	stats := DashboardStats{
		RecentEvents: []RecentEvent{},
		Degraded:     []uuid.UUID{},
	}

	names := make(map[uuid.UUID]string, len(clusters))
	for _, c := range clusters {
		names[c.ID] = c.Name
		stats.Clusters.Total++
		switch c.ConnectionStatus {
		case model.ConnectionStatusConnected:
			stats.Clusters.Connected++
		case model.ConnectionStatusError:
			stats.Clusters.Error++
		default:
			stats.Clusters.Disconnected++
		}
	}

	var events []RecentEvent
	for id, raw := range snapshots {
		s, ok := decode(raw)
		if !ok {
			stats.Degraded = append(stats.Degraded, id)
			continue
		}

		stats.add(s)

		for _, e := range s.events {
			events = append(events, RecentEvent{ClusterID: id, ClusterName: names[id], EventInfo: e})
		}
	}

	slices.SortFunc(stats.Degraded, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	stats.RecentEvents = recent(events, opts.RecentEvents)

	return stats
}

func (d *DashboardStats) add(s snapshot) {
	summary := s.summary
	if summary == nil {
		summary = &model.SnapshotSummary{}
	}

	if summary.Nodes != nil {
		d.Nodes.Total += summary.Nodes.Total
		d.Nodes.Ready += summary.Nodes.Ready
		d.Nodes.NotReady += summary.Nodes.NotReady
	} else {
		for _, n := range s.nodes {
			d.Nodes.Total++
			if strings.EqualFold(n.Status, "Ready") {
				d.Nodes.Ready++
			} else {
				d.Nodes.NotReady++
			}
		}
	}

	if summary.Pods != nil {
		d.Pods.Total += summary.Pods.Total
		d.Pods.Running += summary.Pods.Running
		d.Pods.Pending += summary.Pods.Pending
		d.Pods.Failed += summary.Pods.Failed
		d.Pods.Succeeded += summary.Pods.Succeeded
	} else {
		for _, p := range s.pods {
			d.Pods.Total++
			switch strings.ToLower(p.Status) {
			case "running":
				d.Pods.Running++
			case "pending":
				d.Pods.Pending++
			case "failed":
				d.Pods.Failed++
			case "succeeded":
				d.Pods.Succeeded++
			}
		}
	}

	if summary.Deployments != nil {
		d.Deployments.Total += summary.Deployments.Total
		d.Deployments.Ready += summary.Deployments.Ready
	} else {
		for _, deployment := range s.deployments {
			d.Deployments.Total++
			if deployment.ReadyReplicas >= deployment.Replicas {
				d.Deployments.Ready++
			}
		}
	}

	if summary.Namespaces != nil {
		d.Namespaces += summary.Namespaces.Total
	} else {
		d.Namespaces += len(s.namespaces)
	}

	if summary.Events != nil {
		d.Events.Total += summary.Events.Total
		d.Events.Warning += summary.Events.Warning
		d.Events.Normal += summary.Events.Normal
	} else {
		for _, e := range s.events {
			d.Events.Total++
			if isWarning(e) {
				d.Events.Warning++
			} else if strings.EqualFold(e.Type, "Normal") {
				d.Events.Normal++
			}
		}
	}

	for _, e := range s.events {
		if !isWarning(e) {
			continue
		}
		if isCritical(e) {
			d.Alerts.Critical++
		} else {
			d.Alerts.Warning++
		}
	}
}

func isWarning(e model.EventInfo) bool {
	return strings.EqualFold(e.Type, "Warning")
}

func isCritical(e model.EventInfo) bool {
	for _, reason := range criticalReasons {
		if strings.Contains(e.Reason, reason) {
			return true
		}
	}
	return false
}

// recent returns the n most recently seen events. Ties are broken by cluster name, reason and
// involved object so the order is stable.
func recent(events []RecentEvent, n int) []RecentEvent {
	n = min(max(n, 0), MaxRecentEvents)

	type seen struct {
		event    RecentEvent
		lastSeen time.Time
	}
	sorted := make([]seen, len(events))
	for i, e := range events {
		sorted[i] = seen{e, parseTime(e.LastSeen)}
	}

	slices.SortFunc(sorted, func(a, b seen) int {
		return cmp.Or(
			b.lastSeen.Compare(a.lastSeen),
			strings.Compare(a.event.ClusterName, b.event.ClusterName),
			strings.Compare(a.event.Reason, b.event.Reason),
			strings.Compare(a.event.InvolvedName, b.event.InvolvedName),
			strings.Compare(a.event.Message, b.event.Message),
			strings.Compare(a.event.ClusterID.String(), b.event.ClusterID.String()),
		)
	})

	result := make([]RecentEvent, 0, min(n, len(sorted)))
	for _, s := range sorted[:min(n, len(sorted))] {
		result = append(result, s.event)
	}
	return result
}

// parseTime parses a timestamp set by the agent. Timestamps which can't be parsed are treated as the
// oldest possible.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type snapshot struct {
	summary     *model.SnapshotSummary
	nodes       []model.NodeInfo
	pods        []model.PodInfo
	deployments []model.DeploymentInfo
	namespaces  []model.NamespaceInfo
	events      []model.EventInfo
}

// decode decodes every section of the snapshot. It reports whether all sections could be read, a
// snapshot with any malformed section contributes nothing to the aggregate.
func decode(raw json.RawMessage) (snapshot, bool) {
	var s snapshot
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil || sections == nil {
		return s, false
	}

	ok := true
	section := func(name string, v any, reset func()) {
		data, found := sections[name]
		if !found {
			return
		}
		if err := json.Unmarshal(data, v); err != nil {
			reset()
			ok = false
		}
	}

	section("summary", &s.summary, func() { s.summary = nil })
	section("nodes", &s.nodes, func() { s.nodes = nil })
	section("pods", &s.pods, func() { s.pods = nil })
	section("deployments", &s.deployments, func() { s.deployments = nil })
	section("namespaces", &s.namespaces, func() { s.namespaces = nil })
	section("events", &s.events, func() { s.events = nil })

	return s, ok
}
