package orchestrator

import (
	"fmt"

	"github.com/shapeblock/shapeblock-api/api/services/connection"
	"github.com/shapeblock/shapeblock-api/api/stacks"
	"github.com/shapeblock/shapeblock-api/internal/db"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var (
	ApplicationResource = schema.GroupVersionResource{Group: "dev.shapeblock.com", Version: "v1alpha1", Resource: "applications"}
	ProjectResource     = schema.GroupVersionResource{Group: "dev.shapeblock.com", Version: "v1alpha1", Resource: "projects"}
	HelmReleaseResource = schema.GroupVersionResource{Group: "helm.toolkit.fluxcd.io", Version: "v2beta2", Resource: "helmreleases"}
)

const (
	AppIDLabel     = "shapeblock.com/app-uuid"
	ServiceIDLabel = "shapeblock.com/service-uuid"
	ProjectLabel   = "shapeblock.com/project"
)

type Application struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              ApplicationSpec `json:"spec"`
}

type ApplicationSpec struct {
	AppUUID          string        `json:"appUuid"`
	DeploymentUUID   string        `json:"deploymentUuid"`
	DeploymentType   string        `json:"deploymentType"`
	Name             string        `json:"name"`
	ClusterDomain    string        `json:"clusterDomain"`
	Namespace        string        `json:"namespace"`
	Git              GitSource     `json:"git"`
	ChartVersion     string        `json:"chartVersion"`
	Replicas         int           `json:"replicas"`
	Stack            Stack         `json:"stack"`
	HasLivenessProbe bool          `json:"hasLivenessProbe"`
	EnvVars          []db.KeyValue `json:"envVars"`
	Secrets          []db.KeyValue `json:"secrets"`
	BuildVars        []db.KeyValue `json:"buildVars"`
	Volumes          []Volume      `json:"volumes"`
	InitProcesses    []db.Process  `json:"initProcesses"`
	Workers          []db.Process  `json:"workers"`
	CustomDomains    []string      `json:"customDomains"`
}

type GitSource struct {
	URL      string `json:"url"`
	Revision string `json:"revision"`
	SubPath  string `json:"subPath,omitempty"`
}

type Stack struct {
	Type    string `json:"type"`
	Version string `json:"version,omitempty"`
}

type Volume struct {
	Name      string `json:"name"`
	MountPath string `json:"mountPath"`
	Size      int    `json:"size"`
}

type Project struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              ProjectSpec `json:"spec"`
}

type ProjectSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// Builder shapes records into the custom resources the operator watches.
type Builder struct {
	ClusterDomain string
	ChartVersion  string
	Stacks        *stacks.Table
	Credentials   connection.Credentials
	// HelmRepository is the flux source the service charts are pulled from.
	HelmRepository          string
	HelmRepositoryNamespace string
}

// Application returns the desired state of app as deployed by deployment.
func (b *Builder) Application(app db.App, project db.Project, deployment db.Deployment) (*unstructured.Unstructured, error) {
	version, err := b.Stacks.Resolve(app.Stack, app.StackVersion)
	if err != nil {
		return nil, err
	}
	env, err := b.Credentials.Environment(app)
	if err != nil {
		return nil, err
	}

	volumes := make([]Volume, 0, len(app.Config.Volumes))
	for _, v := range app.Config.Volumes {
		volumes = append(volumes, Volume{Name: v.Name, MountPath: v.MountPath, Size: v.Size})
	}

	cr := &Application{
		TypeMeta: metav1.TypeMeta{APIVersion: ApplicationResource.GroupVersion().String(), Kind: "Application"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      app.Name,
			Namespace: project.Name,
			Labels:    map[string]string{AppIDLabel: app.ID, ProjectLabel: project.Name},
		},
		Spec: ApplicationSpec{
			AppUUID:          app.ID,
			DeploymentUUID:   deployment.ID,
			DeploymentType:   string(deployment.Type),
			Name:             app.Name,
			ClusterDomain:    b.ClusterDomain,
			Namespace:        project.Name,
			Git:              GitSource{URL: app.Repo, Revision: deployment.Ref, SubPath: app.SubPath},
			ChartVersion:     b.ChartVersion,
			Replicas:         app.Replicas,
			Stack:            Stack{Type: app.Stack, Version: version},
			HasLivenessProbe: app.HasLivenessProbe,
			EnvVars:          env,
			Secrets:          orEmpty(app.Config.Secrets),
			BuildVars:        orEmpty(app.Config.BuildVars),
			Volumes:          volumes,
			InitProcesses:    orEmpty(app.Config.InitProcesses),
			Workers:          orEmpty(app.Config.Workers),
			CustomDomains:    orEmpty(app.Config.CustomDomains),
		},
	}
	return toUnstructured(cr)
}

// Project returns the cluster scoped resource of project.
func (b *Builder) Project(project db.Project) (*unstructured.Unstructured, error) {
	cr := &Project{
		TypeMeta:   metav1.TypeMeta{APIVersion: ProjectResource.GroupVersion().String(), Kind: "Project"},
		ObjectMeta: metav1.ObjectMeta{Name: project.Name},
		Spec:       ProjectSpec{Name: project.Name, DisplayName: project.DisplayName, Description: project.Description},
	}
	return toUnstructured(cr)
}

// HelmRelease returns the flux release provisioning service.
func (b *Builder) HelmRelease(service db.Service, project db.Project) (*unstructured.Unstructured, error) {
	template, err := connection.Lookup(service.Type)
	if err != nil {
		return nil, err
	}
	values, err := b.Credentials.HelmValues(service.Type)
	if err != nil {
		return nil, err
	}

	release := &unstructured.Unstructured{Object: map[string]interface{}{
		"spec": map[string]interface{}{
			"interval": "5m",
			"chart": map[string]interface{}{
				"spec": map[string]interface{}{
					"chart": template.Chart,
					"sourceRef": map[string]interface{}{
						"kind":      "HelmRepository",
						"name":      b.HelmRepository,
						"namespace": b.HelmRepositoryNamespace,
					},
				},
			},
			"values": values,
		},
	}}
	release.SetAPIVersion(HelmReleaseResource.GroupVersion().String())
	release.SetKind("HelmRelease")
	release.SetName(service.Name)
	release.SetNamespace(project.Name)
	release.SetLabels(map[string]string{ServiceIDLabel: service.ID, ProjectLabel: project.Name})
	return release, nil
}

func toUnstructured(obj interface{}) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("convert to unstructured: %w", err)
	}
	return &unstructured.Unstructured{Object: content}, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
