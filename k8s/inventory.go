// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package k8s lists and kills workload pods through the Kubernetes API. It is
// the pod-side counterpart of the node inventory: pod scenarios only consume
// the PodInventory interface defined here.
package k8s

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// PodInventory lists pods by match criteria and kills them
type PodInventory interface {
	PodsInNamespace(ctx context.Context, namespace string) ([]corev1.Pod, error)
	PodsForDeployment(ctx context.Context, name, namespace string) ([]corev1.Pod, error)
	PodsBySelector(ctx context.Context, selector, namespace string) ([]corev1.Pod, error)
	KillPod(ctx context.Context, pod corev1.Pod, force bool) error
}

// Inventory is the client-go backed PodInventory implementation
type Inventory struct {
	client kubernetes.Interface
	dryRun bool
	log    *zap.SugaredLogger
}

// NewInventory creates a pod inventory over the given Kubernetes client. In
// dry-run mode pod deletions are logged and skipped.
func NewInventory(client kubernetes.Interface, dryRun bool, log *zap.SugaredLogger) *Inventory {
	return &Inventory{
		client: client,
		dryRun: dryRun,
		log:    log,
	}
}

// NewClient builds a Kubernetes client from the given kubeconfig path,
// falling back to the in-cluster configuration when the path is empty
func NewClient(kubeconfig string) (kubernetes.Interface, error) {
	var (
		config *rest.Config
		err    error
	)

	if kubeconfig != "" {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		config, err = rest.InClusterConfig()
	}

	if err != nil {
		return nil, fmt.Errorf("error building Kubernetes client configuration: %w", err)
	}

	return kubernetes.NewForConfig(config)
}

// PodsInNamespace returns every pod of the given namespace
func (i *Inventory) PodsInNamespace(ctx context.Context, namespace string) ([]corev1.Pod, error) {
	pods, err := i.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("error listing pods in namespace %s: %w", namespace, err)
	}

	return pods.Items, nil
}

// PodsForDeployment returns the pods selected by the given deployment's label
// selector
func (i *Inventory) PodsForDeployment(ctx context.Context, name, namespace string) ([]corev1.Pod, error) {
	deployment, err := i.client.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("error getting deployment %s/%s: %w", namespace, name, err)
	}

	selector, err := metav1.LabelSelectorAsSelector(deployment.Spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("error parsing selector of deployment %s/%s: %w", namespace, name, err)
	}

	return i.PodsBySelector(ctx, selector.String(), namespace)
}

// PodsBySelector returns the pods of a namespace matching the given label
// selector
func (i *Inventory) PodsBySelector(ctx context.Context, selector, namespace string) ([]corev1.Pod, error) {
	pods, err := i.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("error listing pods in namespace %s with selector %q: %w", namespace, selector, err)
	}

	return pods.Items, nil
}

// KillPod deletes the given pod; force skips the grace period
func (i *Inventory) KillPod(ctx context.Context, pod corev1.Pod, force bool) error {
	options := metav1.DeleteOptions{}

	if force {
		gracePeriod := int64(0)
		options.GracePeriodSeconds = &gracePeriod
	}

	i.log.Infow("killing pod", "pod", pod.Name, "namespace", pod.Namespace, "force", force)

	if i.dryRun {
		i.log.Infow("dry run mode on, skipping pod deletion", "pod", pod.Name, "namespace", pod.Namespace)

		return nil
	}

	if err := i.client.CoreV1().Pods(pod.Namespace).Delete(ctx, pod.Name, options); err != nil {
		return fmt.Errorf("error deleting pod %s/%s: %w", pod.Namespace, pod.Name, err)
	}

	return nil
}
