// Package orchestrator submits desired state to the operator reconciling
// apps, projects and services in the cluster.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/internal/db"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// Submitter hands app deployments to the operator.
type Submitter interface {
	// SubmitApplication creates or updates the desired state of app for deployment.
	SubmitApplication(ctx context.Context, app db.App, project db.Project, deployment db.Deployment) error
	// DeleteApplication removes the desired state of app. Removing an absent app is not an error.
	DeleteApplication(ctx context.Context, app db.App, project db.Project) error
}

// Provisioner hands projects and managed services to the operator.
type Provisioner interface {
	SubmitProject(ctx context.Context, project db.Project) error
	DeleteProject(ctx context.Context, project db.Project) error
	SubmitService(ctx context.Context, service db.Service, project db.Project) error
	DeleteService(ctx context.Context, service db.Service, project db.Project) error
	// StatefulSetReady reports whether every replica of a stateful set is ready.
	StatefulSetReady(ctx context.Context, namespace, name string) (bool, error)
}

type Client struct {
	dynamic dynamic.Interface
	kube    kubernetes.Interface
	builder *Builder
	timeout time.Duration
}

var (
	_ Submitter   = &Client{}
	_ Provisioner = &Client{}
)

func NewClient(dynamicClient dynamic.Interface, kubeClient kubernetes.Interface, builder *Builder, timeout time.Duration) *Client {
	return &Client{
		dynamic: dynamicClient,
		kube:    kubeClient,
		builder: builder,
		timeout: timeout,
	}
}

func (c *Client) SubmitApplication(ctx context.Context, app db.App, project db.Project, deployment db.Deployment) error {
	obj, err := c.builder.Application(app, project, deployment)
	if err != nil {
		return err
	}
	return c.upsert(ctx, ApplicationResource, obj)
}

func (c *Client) DeleteApplication(ctx context.Context, app db.App, project db.Project) error {
	return c.delete(ctx, ApplicationResource, project.Name, app.Name)
}

func (c *Client) SubmitProject(ctx context.Context, project db.Project) error {
	obj, err := c.builder.Project(project)
	if err != nil {
		return err
	}
	return c.upsert(ctx, ProjectResource, obj)
}

func (c *Client) DeleteProject(ctx context.Context, project db.Project) error {
	return c.delete(ctx, ProjectResource, "", project.Name)
}

func (c *Client) SubmitService(ctx context.Context, service db.Service, project db.Project) error {
	obj, err := c.builder.HelmRelease(service, project)
	if err != nil {
		return err
	}
	return c.upsert(ctx, HelmReleaseResource, obj)
}

func (c *Client) DeleteService(ctx context.Context, service db.Service, project db.Project) error {
	return c.delete(ctx, HelmReleaseResource, project.Name, service.Name)
}

func (c *Client) StatefulSetReady(ctx context.Context, namespace, name string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sts, err := c.kube.AppsV1().StatefulSets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if sts.Spec.Replicas == nil {
		return false, nil
	}
	return *sts.Spec.Replicas == sts.Status.ReadyReplicas, nil
}

func (c *Client) resource(gvr schema.GroupVersionResource, namespace string) dynamic.ResourceInterface {
	if namespace == "" {
		return c.dynamic.Resource(gvr)
	}
	return c.dynamic.Resource(gvr).Namespace(namespace)
}

// upsert updates obj in place, or creates it when it does not exist yet.
func (c *Client) upsert(ctx context.Context, gvr schema.GroupVersionResource, obj *unstructured.Unstructured) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	logger := log.Ctx(ctx).With().Str("resource", gvr.Resource).Str("namespace", obj.GetNamespace()).Str("name", obj.GetName()).Logger()
	res := c.resource(gvr, obj.GetNamespace())

	existing, err := res.Get(ctx, obj.GetName(), metav1.GetOptions{})
	switch {
	case k8serrors.IsNotFound(err):
		if _, err := res.Create(ctx, obj, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("create %s %s: %w", gvr.Resource, obj.GetName(), err)
		}
		logger.Info().Msg("created")
		return nil
	case err != nil:
		return fmt.Errorf("get %s %s: %w", gvr.Resource, obj.GetName(), err)
	}

	obj.SetResourceVersion(existing.GetResourceVersion())
	if _, err := res.Update(ctx, obj, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update %s %s: %w", gvr.Resource, obj.GetName(), err)
	}
	logger.Info().Msg("updated")
	return nil
}

func (c *Client) delete(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err := c.resource(gvr, namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !k8serrors.IsNotFound(err) {
		return fmt.Errorf("delete %s %s: %w", gvr.Resource, name, err)
	}
	log.Ctx(ctx).Info().Str("resource", gvr.Resource).Str("namespace", namespace).Str("name", name).Msg("deleted")
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
