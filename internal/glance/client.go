// Package glance implements the image service against OpenStack
// Glance using the Image v2 API.
package glance

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/imagedata"
	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/images"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"k8s.io/klog/v2"

	"github.com/wintarget/wintarget/internal/image"
)

// Options carries the authentication settings for the image service.
type Options struct {
	AuthURL    string
	Username   string
	Password   string
	TenantName string
	DomainName string
	Region     string
	Insecure   bool
}

// Client talks to Glance. It satisfies the image pipeline's Service
// interface.
type Client struct {
	images *gophercloud.ServiceClient
}

// New authenticates against the identity service and builds an image
// service client for the configured region.
func New(ctx context.Context, opts Options) (*Client, error) {
	if err := Ping(opts.AuthURL); err != nil {
		return nil, err
	}

	authOpts := gophercloud.AuthOptions{
		IdentityEndpoint: opts.AuthURL,
		Username:         opts.Username,
		Password:         opts.Password,
		TenantName:       opts.TenantName,
		DomainName:       opts.DomainName,
		AllowReauth:      true,
		Scope: &gophercloud.AuthScope{
			ProjectName: opts.TenantName,
			DomainName:  opts.DomainName,
		},
	}

	var provider *gophercloud.ProviderClient
	var err error
	if opts.Insecure {
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		provider, err = openstack.NewClient(opts.AuthURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider client: %w", err)
		}
		provider.HTTPClient = http.Client{Transport: transport}
		if err := openstack.Authenticate(ctx, provider, authOpts); err != nil {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
		klog.Infof("TLS verification disabled (insecure mode)")
	} else {
		provider, err = openstack.AuthenticatedClient(ctx, authOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenStack provider client: %w", err)
		}
	}

	imageClient, err := openstack.NewImageV2(provider, gophercloud.EndpointOpts{
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image service client: %w", err)
	}

	klog.Infof("Connected to image service at %s (region=%s)", opts.AuthURL, opts.Region)
	return &Client{images: imageClient}, nil
}

// Ping verifies the identity endpoint is reachable before
// authenticating. Flapping endpoints get a few retries.
func Ping(authURL string) error {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.Logger = nil

	resp, err := client.Get(authURL)
	if err != nil {
		return fmt.Errorf("failed to reach identity endpoint %s: %w", authURL, err)
	}
	defer resp.Body.Close()
	return nil
}

// Download streams the image content into w.
func (c *Client) Download(ctx context.Context, imageID string, w io.Writer) error {
	rc, err := imagedata.Download(ctx, c.images, imageID).Extract()
	if err != nil {
		return fmt.Errorf("failed to download image %s: %w", imageID, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to read image %s: %w", imageID, err)
	}
	return nil
}

// Upload patches the image record to match meta and streams r as its
// content. A zero meta skips the patch and only uploads data.
func (c *Client) Upload(ctx context.Context, imageID string, meta image.Meta, r io.Reader) error {
	if opts := updateOpts(meta); len(opts) > 0 {
		if _, err := images.Update(ctx, c.images, imageID, opts).Extract(); err != nil {
			return fmt.Errorf("failed to update image %s: %w", imageID, err)
		}
	}

	if err := imagedata.Upload(ctx, c.images, imageID, r).ExtractErr(); err != nil {
		return fmt.Errorf("failed to upload image %s: %w", imageID, err)
	}
	return nil
}

// updateOpts maps image metadata onto a Glance update patch. A zero
// Meta yields no patch, which leaves the image record untouched.
func updateOpts(meta image.Meta) images.UpdateOpts {
	var opts images.UpdateOpts
	if meta.Name != "" {
		opts = append(opts, images.ReplaceImageName{NewName: meta.Name})
	}
	if meta.DiskFormat != "" {
		opts = append(opts, images.UpdateImageProperty{
			Op:    images.ReplaceOp,
			Name:  "disk_format",
			Value: meta.DiskFormat,
		})
	}
	if meta.ContainerFormat != "" {
		opts = append(opts, images.UpdateImageProperty{
			Op:    images.ReplaceOp,
			Name:  "container_format",
			Value: meta.ContainerFormat,
		})
	}
	return opts
}
