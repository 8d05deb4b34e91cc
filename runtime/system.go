package runtime

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/actrlabs/actrgo/config"
	"github.com/actrlabs/actrgo/protocol"
	"github.com/actrlabs/actrgo/transport"
)

// System owns one node's identity, transport and routing state. It is
// constructed from configuration and consumed by Attach.
type System struct {
	cfg  *config.Config
	self protocol.ActrId

	tr       transport.Transport
	routes   *routeTable
	registry *discoveryRegistry

	defaultTimeout time.Duration
}

// InprocAddr returns the in-process transport address for id. Nodes
// configured without a listen address are reachable under it within the
// same process.
func InprocAddr(id protocol.ActrId) string {
	return fmt.Sprintf("inproc/%d/%d", id.Realm.RealmID, id.SerialNumber)
}

// actorID converts configured identity fields into a protocol ActrId.
func actorID(realm uint32, serial uint64, t config.ActorTypeConfig) protocol.ActrId {
	return protocol.ActrId{
		Realm:        protocol.Realm{RealmID: realm},
		SerialNumber: serial,
		Type: protocol.ActrType{
			Manufacturer: t.Manufacturer,
			Name:         t.Name,
		},
	}
}

// NewSystem builds a system from validated configuration: the node
// identity, a transport (TCP when node.listen is set, in-process
// otherwise) and the route/discovery tables seeded from the configured
// peers.
func NewSystem(cfg *config.Config) (*System, error) {
	if cfg == nil {
		return nil, protocol.NewConfigError("nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, protocol.WrapError(protocol.ClassConfig, err, "invalid configuration")
	}

	self := actorID(cfg.Node.Realm, cfg.Node.SerialNumber, cfg.Node.Type)

	var tr transport.Transport
	if cfg.Node.Listen != "" {
		tr = transport.NewTCP(cfg.Node.Listen)
	} else {
		tr = transport.NewInproc(InprocAddr(self))
	}

	s := &System{
		cfg:            cfg,
		self:           self,
		tr:             tr,
		routes:         newRouteTable(),
		registry:       newDiscoveryRegistry(),
		defaultTimeout: time.Duration(cfg.Call.DefaultTimeoutMs) * time.Millisecond,
	}

	for _, peer := range cfg.Peers {
		id := actorID(peer.Realm, peer.SerialNumber, peer.Type)
		s.routes.add(id, peer.Address)
		s.registry.register(id)
		logrus.Debugf("seeded peer %s at %s", id, peer.Address)
	}

	// The node itself is routable the moment the transport is up.
	s.routes.add(self, tr.LocalAddr())

	return s, nil
}

// ActorID returns the identity of the node this system will host.
func (s *System) ActorID() protocol.ActrId {
	return s.self
}

// Attach binds a workload to the system and returns the node hosting it.
// The node still has to be started.
func (s *System) Attach(w Workload) (*Node, error) {
	if w == nil {
		return nil, errors.New("nil workload")
	}
	return newNode(s, w), nil
}
