// Package kubernetes 提供基于 Kubernetes API 的注册中心客户端实现。
//
// 映射关系：
//   - 服务实例：EndpointSlice（label kubernetes.io/service-name），Ready 视为 passing；
//   - 实例标签：EndpointSlice 上以 tags.firefly.io/ 为前缀的 label；
//   - key/value：namespace 下名为 ff-discover-kv 的 ConfigMap，key 做 base64url 编码。
//
// Pod 生命周期由 Kubernetes 管理，Register/Deregister/Heartbeat 不做任何操作。
package kubernetes

import (
	"encoding/base64"
	"fmt"

	"github.com/fireflycore/go-discover/registry"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	// TagLabelPrefix EndpointSlice 标签前缀
	TagLabelPrefix = "tags.firefly.io/"
	// ConfigMapName 存放 key/value 的 ConfigMap
	ConfigMapName = "ff-discover-kv"
)

// NewClientset 优先使用集群内配置，kubeconfig 非空时使用该文件。
func NewClientset(kubeconfig string) (kubernetes.Interface, error) {
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
		return nil, fmt.Errorf("%w: %w", registry.ErrKubernetesConfig, err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", registry.ErrKubernetesClient, err)
	}
	return clientset, nil
}

// encodeKey ConfigMap 的 data key 只允许 [-._a-zA-Z0-9]。
func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
