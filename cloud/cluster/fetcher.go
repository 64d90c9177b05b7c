package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/common/bytesize"
)

// Defines the way in which the full set of workers in a cluster is retrieved
type Fetcher interface {
	Fetch(ctx context.Context) ([]Node, error)
}

// MakeStaticFetcher always returns the given nodes; used for clusters whose
// shape is known up front.
func MakeStaticFetcher(nodes []Node) Fetcher {
	cp := make([]Node, len(nodes))
	copy(cp, nodes)
	sort.Sort(NodeSorter(cp))
	return &staticFetcher{nodes: cp}
}

type staticFetcher struct {
	nodes []Node
}

func (f *staticFetcher) Fetch(ctx context.Context) ([]Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := make([]Node, len(f.nodes))
	copy(r, f.nodes)
	return r, nil
}

const DefaultHttpTries = 5

// Path of the scheduler's JSON identity document on its HTTP (dashboard) port.
const IdentityPath = "json/identity.json"

type Client interface {
	Do(req *http.Request) (resp *http.Response, err error)
}

func MakePesterClient(timeout time.Duration) *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = DefaultHttpTries
	client.Timeout = timeout
	client.LogHook = func(e pester.ErrEntry) {
		log.Errorf("Retrying after failed attempt: %+v", e)
	}
	return client
}

// MakeHTTPFetcher reads workers from the scheduler's identity document at
// addr, e.g. "http://scheduler:8787".
func MakeHTTPFetcher(addr string, timeout time.Duration) Fetcher {
	return MakeCustomHTTPFetcher(addr, MakePesterClient(timeout))
}

func MakeCustomHTTPFetcher(addr string, client Client) Fetcher {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if !strings.HasSuffix(addr, "/") {
		addr = addr + "/"
	}
	return &httpFetcher{uri: addr + IdentityPath, client: client}
}

type httpFetcher struct {
	uri    string
	client Client
}

type identity struct {
	Type    string                    `json:"type"`
	Id      string                    `json:"id"`
	Workers map[string]workerIdentity `json:"workers"`
}

type workerIdentity struct {
	MemoryLimit *int64 `json:"memory_limit"`
	NThreads    int    `json:"nthreads"`
}

func (f *httpFetcher) Fetch(ctx context.Context) ([]Node, error) {
	req, err := http.NewRequest("GET", f.uri, nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	log.Debugf("Fetching workers from %s", f.uri)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", f.uri)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", f.uri, resp.Status)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", f.uri)
	}
	return parseIdentity(body)
}

func parseIdentity(data []byte) ([]Node, error) {
	var id identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, errors.Wrap(err, "decoding scheduler identity")
	}
	nodes := make([]Node, 0, len(id.Workers))
	for addr, w := range id.Workers {
		n := Node{Id: NodeId(addr), NThreads: w.NThreads}
		if w.MemoryLimit == nil || *w.MemoryLimit <= 0 {
			log.Warnf("worker %s reports no memory limit, counting 0 bytes", addr)
		} else {
			n.MemoryLimit = bytesize.ByteSize(*w.MemoryLimit)
		}
		nodes = append(nodes, n)
	}
	sort.Sort(NodeSorter(nodes))
	return nodes, nil
}
