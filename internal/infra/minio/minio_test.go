package minio

import (
	"testing"

	"skymate/internal/config"
)

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.MinIOConfig
		path string
		want string
	}{
		{
			name: "plain endpoint",
			cfg:  config.MinIOConfig{Endpoint: "127.0.0.1:9000", PhotoBucket: "community-photos"},
			path: "7/abc.jpg",
			want: "http://127.0.0.1:9000/community-photos/7/abc.jpg",
		},
		{
			name: "ssl and leading slash",
			cfg:  config.MinIOConfig{Endpoint: "cdn.skymate.io", UseSSL: true, PhotoBucket: "p"},
			path: "/7/abc.jpg",
			want: "https://cdn.skymate.io/p/7/abc.jpg",
		},
		{
			name: "public base url",
			cfg:  config.MinIOConfig{Endpoint: "minio:9000", PhotoBucket: "p", PublicBaseURL: "https://img.skymate.io/"},
			path: "7/abc.jpg",
			want: "https://img.skymate.io/7/abc.jpg",
		},
		{
			name: "already absolute",
			cfg:  config.MinIOConfig{Endpoint: "minio:9000", PhotoBucket: "p"},
			path: "https://example.com/x.jpg",
			want: "https://example.com/x.jpg",
		},
		{
			name: "empty",
			cfg:  config.MinIOConfig{Endpoint: "minio:9000", PhotoBucket: "p"},
			path: "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PublicURL(&tc.cfg, tc.path); got != tc.want {
				t.Fatalf("PublicURL = %q, want %q", got, tc.want)
			}
		})
	}
}
