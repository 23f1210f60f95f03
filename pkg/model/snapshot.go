package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClusterSnapshot is the latest inventory submitted by a clusters agent. There is at most one row
// per cluster, every ingestion replaces the previous one.
// swagger:model
type ClusterSnapshot struct {
	ClusterID uuid.UUID `json:"cluster_id" gorm:"type:uuid;primaryKey"`
	Cluster   Cluster   `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	// Snapshot is stored as submitted so aggregation can degrade gracefully on payloads it fails
	// to decode.
	Snapshot    SnapshotDocument `json:"snapshot" gorm:"type:jsonb;not null"`
	CollectedAt time.Time        `json:"collected_at" gorm:"not null"`
	// AgentCollectedAt is the collection time declared by the agent. It's informational only,
	// CollectedAt is always server time.
	AgentCollectedAt *time.Time `json:"agent_collected_at,omitempty"`
}

// SnapshotDocument is a raw JSON encoded SnapshotPayload.
type SnapshotDocument json.RawMessage

func (d SnapshotDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	return string(d), nil
}

func (d *SnapshotDocument) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		*d = append((*d)[0:0], v...)
	case string:
		*d = SnapshotDocument(v)
	case nil:
		*d = nil
	default:
		return fmt.Errorf("unsupported snapshot document type %T", value)
	}
	return nil
}

func (d SnapshotDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *SnapshotDocument) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// SnapshotPayload is a point in time inventory of a cluster as collected by the agent. Nodes, Pods
// and Events are authoritative, Summary is a convenience that may be absent or stale.
type SnapshotPayload struct {
	Summary      *SnapshotSummary  `json:"summary,omitempty"`
	Nodes        []NodeInfo        `json:"nodes"`
	Pods         []PodInfo         `json:"pods"`
	Namespaces   []NamespaceInfo   `json:"namespaces,omitempty"`
	Deployments  []DeploymentInfo  `json:"deployments,omitempty"`
	StatefulSets []StatefulSetInfo `json:"statefulsets,omitempty"`
	DaemonSets   []DaemonSetInfo   `json:"daemonsets,omitempty"`
	Services     []ServiceInfo     `json:"services,omitempty"`
	Ingresses    []json.RawMessage `json:"ingresses,omitempty"`
	Jobs         []json.RawMessage `json:"jobs,omitempty"`
	ConfigMaps   []json.RawMessage `json:"configmaps,omitempty"`
	Events       []EventInfo       `json:"events,omitempty"`
	CollectedAt  string            `json:"collected_at,omitempty"`
}

type SnapshotSummary struct {
	Nodes       *NodeSummary       `json:"nodes,omitempty"`
	Pods        *PodSummary        `json:"pods,omitempty"`
	Events      *EventSummary      `json:"events,omitempty"`
	Deployments *DeploymentSummary `json:"deployments,omitempty"`
	Namespaces  *NamespaceSummary  `json:"namespaces,omitempty"`
}

type NodeSummary struct {
	Total    int `json:"total"`
	Ready    int `json:"ready"`
	NotReady int `json:"not_ready"`
}

type PodSummary struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Succeeded int `json:"succeeded"`
}

type EventSummary struct {
	Total   int `json:"total"`
	Warning int `json:"warning"`
	Normal  int `json:"normal"`
}

type DeploymentSummary struct {
	Total int `json:"total"`
	Ready int `json:"ready"`
}

type NamespaceSummary struct {
	Total int `json:"total"`
}

type NodeInfo struct {
	Name              string            `json:"name"`
	Status            string            `json:"status"`
	CapacityCPU       string            `json:"capacity_cpu,omitempty"`
	CapacityMemory    string            `json:"capacity_memory,omitempty"`
	AllocatableCPU    string            `json:"allocatable_cpu,omitempty"`
	AllocatableMemory string            `json:"allocatable_memory,omitempty"`
	KubernetesVersion string            `json:"kubernetes_version,omitempty"`
	OSImage           string            `json:"os_image,omitempty"`
	ContainerRuntime  string            `json:"container_runtime,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
}

type PodInfo struct {
	Name         string            `json:"name"`
	Namespace    string            `json:"namespace"`
	Status       string            `json:"status"`
	Node         string            `json:"node,omitempty"`
	PodIP        string            `json:"pod_ip,omitempty"`
	RestartCount int               `json:"restart_count"`
	Created      string            `json:"created,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
}

type NamespaceInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type DeploymentInfo struct {
	Name              string `json:"name"`
	Namespace         string `json:"namespace"`
	Replicas          int    `json:"replicas"`
	ReadyReplicas     int    `json:"ready_replicas"`
	AvailableReplicas int    `json:"available_replicas"`
	Strategy          string `json:"strategy,omitempty"`
	Created           string `json:"created,omitempty"`
}

type StatefulSetInfo struct {
	Name          string `json:"name"`
	Namespace     string `json:"namespace"`
	Replicas      int    `json:"replicas"`
	ReadyReplicas int    `json:"ready_replicas"`
	ServiceName   string `json:"service_name,omitempty"`
	Created       string `json:"created,omitempty"`
}

type DaemonSetInfo struct {
	Name         string `json:"name"`
	Namespace    string `json:"namespace"`
	DesiredNodes int    `json:"desired_nodes"`
	ReadyNodes   int    `json:"ready_nodes"`
	Created      string `json:"created,omitempty"`
}

type ServiceInfo struct {
	Name       string            `json:"name"`
	Namespace  string            `json:"namespace"`
	Type       string            `json:"type"`
	ClusterIP  string            `json:"cluster_ip,omitempty"`
	ExternalIP string            `json:"external_ip,omitempty"`
	Ports      []json.RawMessage `json:"ports,omitempty"`
	Created    string            `json:"created,omitempty"`
}

type EventInfo struct {
	Type              string `json:"type"`
	Reason            string `json:"reason"`
	Message           string `json:"message"`
	InvolvedKind      string `json:"involved_kind,omitempty"`
	InvolvedName      string `json:"involved_name,omitempty"`
	InvolvedNamespace string `json:"involved_namespace,omitempty"`
	SourceComponent   string `json:"source_component,omitempty"`
	Count             int    `json:"count,omitempty"`
	FirstSeen         string `json:"first_seen,omitempty"`
	LastSeen          string `json:"last_seen,omitempty"`
}
