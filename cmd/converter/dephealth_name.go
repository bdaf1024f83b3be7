// dephealth_name.go — имя вершины графа зависимостей для topologymetrics.
package main

import (
	"os"
	"regexp"

	"github.com/bigkaa/goartstore/converter/internal/config"
)

var (
	// Deployment: <name>-<хеш ReplicaSet>-<хеш пода>
	deploymentPodRe = regexp.MustCompile(`^(.+)-[a-z0-9]{6,10}-[a-z0-9]{5}$`)
	// StatefulSet: <name>-<ordinal>
	statefulSetPodRe = regexp.MustCompile(`^(.+)-\d+$`)
)

// dephealthName определяет имя приложения в метриках зависимостей.
// Порядок: DEPHEALTH_NAME, CV_SERVICE_ID, владелец пода по hostname,
// затем "converter".
func dephealthName(cfg *config.Config) string {
	if cfg.DephealthName != "" {
		return cfg.DephealthName
	}
	if cfg.ServiceID != "" {
		return cfg.ServiceID
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return parseOwnerName(hostname)
	}
	return "converter"
}

// parseOwnerName отрезает от hostname пода суффиксы, добавленные
// контроллером Kubernetes.
func parseOwnerName(hostname string) string {
	if m := deploymentPodRe.FindStringSubmatch(hostname); m != nil {
		return m[1]
	}
	if m := statefulSetPodRe.FindStringSubmatch(hostname); m != nil {
		return m[1]
	}
	return hostname
}
