package kubernetes

import (
	"context"
	"fmt"

	"github.com/fireflycore/go-discover/registry"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/util/retry"
)

// GetValue 从 ConfigMap 读取 key；ConfigMap 不存在视为 key 不存在。
func (s *Instance) GetValue(ctx context.Context, key string) (string, bool, error) {
	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, ConfigMapName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: kubernetes get configmap: %w", registry.ErrRegistryUnavailable, err)
	}
	value, ok := cm.Data[encodeKey(key)]
	return value, ok, nil
}

// PutValue 写入 ConfigMap，冲突时按 client-go 默认退避重试。
func (s *Instance) PutValue(ctx context.Context, key, value string) error {
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		configMaps := s.client.CoreV1().ConfigMaps(s.namespace)

		cm, err := configMaps.Get(ctx, ConfigMapName, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			_, err = configMaps.Create(ctx, &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{Name: ConfigMapName, Namespace: s.namespace},
				Data:       map[string]string{encodeKey(key): value},
			}, metav1.CreateOptions{})
			return err
		}
		if err != nil {
			return err
		}

		if cm.Data == nil {
			cm.Data = make(map[string]string)
		}
		cm.Data[encodeKey(key)] = value
		_, err = configMaps.Update(ctx, cm, metav1.UpdateOptions{})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: kubernetes put %s: %w", registry.ErrRegistryUnavailable, key, err)
	}
	return nil
}
