// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package k8s_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/DataDog/chaos-seal/k8s"
)

var _ = Describe("Inventory", func() {
	var (
		client    *fake.Clientset
		inventory *k8s.Inventory
	)

	pod := func(name, namespace string, labels map[string]string) *corev1.Pod {
		return &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: labels},
			Status:     corev1.PodStatus{Phase: corev1.PodRunning},
		}
	}

	BeforeEach(func() {
		client = fake.NewSimpleClientset(
			pod("front-1", "web", map[string]string{"app": "front"}),
			pod("front-2", "web", map[string]string{"app": "front"}),
			pod("back-1", "web", map[string]string{"app": "back"}),
			pod("other-1", "other", nil),
			&appsv1.Deployment{
				ObjectMeta: metav1.ObjectMeta{Name: "front", Namespace: "web"},
				Spec: appsv1.DeploymentSpec{
					Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "front"}},
				},
			},
		)
		inventory = k8s.NewInventory(client, false, logger)
	})

	Describe("PodsInNamespace", func() {
		It("should list every pod of the namespace", func() {
			pods, err := inventory.PodsInNamespace(context.Background(), "web")

			Expect(err).ToNot(HaveOccurred())
			Expect(pods).To(HaveLen(3))
		})

		It("should return nothing for an empty namespace", func() {
			pods, err := inventory.PodsInNamespace(context.Background(), "empty")

			Expect(err).ToNot(HaveOccurred())
			Expect(pods).To(BeEmpty())
		})
	})

	Describe("PodsBySelector", func() {
		It("should list only pods matching the selector within the namespace", func() {
			pods, err := inventory.PodsBySelector(context.Background(), "app=front", "web")

			Expect(err).ToNot(HaveOccurred())
			Expect(pods).To(HaveLen(2))

			for _, p := range pods {
				Expect(p.Labels).To(HaveKeyWithValue("app", "front"))
			}
		})
	})

	Describe("PodsForDeployment", func() {
		It("should list the pods selected by the deployment", func() {
			pods, err := inventory.PodsForDeployment(context.Background(), "front", "web")

			Expect(err).ToNot(HaveOccurred())
			Expect(pods).To(HaveLen(2))
		})

		It("should fail for a missing deployment", func() {
			_, err := inventory.PodsForDeployment(context.Background(), "nosuchthing", "web")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("error getting deployment web/nosuchthing"))
		})
	})

	Describe("KillPod", func() {
		It("should delete the pod", func() {
			target := pod("front-1", "web", nil)

			Expect(inventory.KillPod(context.Background(), *target, false)).To(Succeed())

			_, err := client.CoreV1().Pods("web").Get(context.Background(), "front-1", metav1.GetOptions{})
			Expect(apierrors.IsNotFound(err)).To(BeTrue())
		})

		It("should keep the pod in dry-run mode", func() {
			dry := k8s.NewInventory(client, true, logger)
			target := pod("front-1", "web", nil)

			Expect(dry.KillPod(context.Background(), *target, false)).To(Succeed())

			_, err := client.CoreV1().Pods("web").Get(context.Background(), "front-1", metav1.GetOptions{})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should fail for a missing pod", func() {
			target := pod("nosuchpod", "web", nil)

			err := inventory.KillPod(context.Background(), *target, true)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("error deleting pod web/nosuchpod"))
		})
	})
})
