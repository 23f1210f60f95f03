// Package manifest renders the Kubernetes objects installing the kubervise agent into a cluster
// and the commands an operator runs to do so.
package manifest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	"sigs.k8s.io/yaml"
)

const (
	Namespace          = "kubervise"
	AgentName          = "kubervise-agent"
	SecretName         = "kubervise-agent-secrets"
	HealthPort         = 8001
	HealthPath         = "/health"
	ClusterLabel       = "kubervise.io/cluster"
	secretKeyAPIURL    = "api-url"
	secretKeyToken     = "agent-token"
	secretKeyClusterID = "cluster-id"
)

// ReadOnlyVerbs are the only verbs the agent is granted.
var ReadOnlyVerbs = []string{"get", "list", "watch"}

// Params are the values the agent manifest is rendered with.
type Params struct {
	ClusterID   uuid.UUID
	ClusterName string
	// BackendURL is where the agent submits its snapshots to.
	BackendURL string
	// AgentToken authenticates the agent. It's the only credential embedded in the manifest.
	AgentToken string
	Image      string
}

func (p Params) validate() error {
	var errs []error
	if p.ClusterID == uuid.Nil {
		errs = append(errs, errors.New("cluster id is required"))
	}
	if p.BackendURL == "" {
		errs = append(errs, errors.New("backend url is required"))
	}
	if p.AgentToken == "" {
		errs = append(errs, errors.New("agent token is required"))
	}
	if p.Image == "" {
		errs = append(errs, errors.New("agent image is required"))
	}
	return errors.Join(errs...)
}

// Build renders a multi document YAML manifest which can be applied using kubectl apply -f.
func Build(p Params) (string, error) {
	if err := p.validate(); err != nil {
		return "", fmt.Errorf("invalid manifest parameters: %v", err)
	}

	labels := labels(p.ClusterName)
	objects := []runtime.Object{
		namespace(labels),
		serviceAccount(labels),
		clusterRole(labels),
		clusterRoleBinding(labels),
		secret(labels, p),
		deployment(labels, p.Image),
	}

	var b bytes.Buffer
	for i, object := range objects {
		if i > 0 {
			b.WriteString("---\n")
		}
		out, err := yaml.Marshal(object)
		if err != nil {
			return "", fmt.Errorf("failed to render %T: %v", object, err)
		}
		b.Write(out)
	}

	return b.String(), nil
}

func labels(clusterName string) map[string]string {
	l := map[string]string{
		"app.kubernetes.io/name":       AgentName,
		"app.kubernetes.io/managed-by": "kubervise",
	}
	if s := clusterSlug(clusterName); s != "" {
		l[ClusterLabel] = s
	}
	return l
}

// clusterSlug turns a cluster name into a valid label value of at most 63 characters.
func clusterSlug(name string) string {
	s := slug.Make(name)
	if len(s) > 63 {
		s = s[:63]
	}
	for len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}

func objectMeta(name string, namespaced bool, labels map[string]string) metav1.ObjectMeta {
	meta := metav1.ObjectMeta{
		Name:   name,
		Labels: labels,
	}
	if namespaced {
		meta.Namespace = Namespace
	}
	return meta
}

func namespace(labels map[string]string) *corev1.Namespace {
	return &corev1.Namespace{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: objectMeta(Namespace, false, labels),
	}
}

func serviceAccount(labels map[string]string) *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "ServiceAccount"},
		ObjectMeta: objectMeta(AgentName, true, labels),
	}
}

func clusterRole(labels map[string]string) *rbacv1.ClusterRole {
	rule := func(group string, resources ...string) rbacv1.PolicyRule {
		return rbacv1.PolicyRule{
			APIGroups: []string{group},
			Resources: resources,
			Verbs:     ReadOnlyVerbs,
		}
	}

	return &rbacv1.ClusterRole{
		TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRole"},
		ObjectMeta: objectMeta(AgentName, false, labels),
		Rules: []rbacv1.PolicyRule{
			rule(corev1.GroupName, "nodes", "pods", "namespaces", "services", "events", "configmaps",
				"persistentvolumes", "persistentvolumeclaims", "endpoints"),
			rule(appsv1.GroupName, "deployments", "statefulsets", "daemonsets", "replicasets"),
			rule(batchv1.GroupName, "jobs", "cronjobs"),
			rule(networkingv1.GroupName, "ingresses", "networkpolicies"),
			rule(metricsv1beta1.SchemeGroupVersion.Group, "nodes", "pods"),
		},
	}
}

func clusterRoleBinding(labels map[string]string) *rbacv1.ClusterRoleBinding {
	return &rbacv1.ClusterRoleBinding{
		TypeMeta:   metav1.TypeMeta{APIVersion: rbacv1.SchemeGroupVersion.String(), Kind: "ClusterRoleBinding"},
		ObjectMeta: objectMeta(AgentName, false, labels),
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     AgentName,
		},
		Subjects: []rbacv1.Subject{
			{
				Kind:      rbacv1.ServiceAccountKind,
				Name:      AgentName,
				Namespace: Namespace,
			},
		},
	}
}

func secret(labels map[string]string, p Params) *corev1.Secret {
	return &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: objectMeta(SecretName, true, labels),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{
			secretKeyAPIURL:    p.BackendURL,
			secretKeyToken:     p.AgentToken,
			secretKeyClusterID: p.ClusterID.String(),
		},
	}
}

func deployment(labels map[string]string, image string) *appsv1.Deployment {
	replicas := int32(1)
	selector := map[string]string{"app.kubernetes.io/name": AgentName}

	probe := func(initialDelay int32) *corev1.Probe {
		return &corev1.Probe{
			ProbeHandler: corev1.ProbeHandler{
				HTTPGet: &corev1.HTTPGetAction{
					Path: HealthPath,
					Port: intstr.FromInt32(HealthPort),
				},
			},
			InitialDelaySeconds: initialDelay,
			PeriodSeconds:       30,
		}
	}

	fromSecret := func(name, key string) corev1.EnvVar {
		return corev1.EnvVar{
			Name: name,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: SecretName},
					Key:                  key,
				},
			},
		}
	}

	return &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: appsv1.SchemeGroupVersion.String(), Kind: "Deployment"},
		ObjectMeta: objectMeta(AgentName, true, labels),
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					ServiceAccountName: AgentName,
					Containers: []corev1.Container{
						{
							Name:            AgentName,
							Image:           image,
							ImagePullPolicy: corev1.PullIfNotPresent,
							Ports: []corev1.ContainerPort{
								{Name: "http", ContainerPort: HealthPort, Protocol: corev1.ProtocolTCP},
							},
							Env: []corev1.EnvVar{
								fromSecret("OBSERVE_API_URL", secretKeyAPIURL),
								fromSecret("OBSERVE_AGENT_TOKEN", secretKeyToken),
								fromSecret("OBSERVE_CLUSTER_ID", secretKeyClusterID),
								{Name: "OBSERVE_IN_CLUSTER", Value: "true"},
							},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("50m"),
									corev1.ResourceMemory: resource.MustParse("64Mi"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("200m"),
									corev1.ResourceMemory: resource.MustParse("256Mi"),
								},
							},
							LivenessProbe:  probe(10),
							ReadinessProbe: probe(5),
						},
					},
				},
			},
		},
	}
}
