package inttest

import (
	"context"
	"fmt"
	"testing"

	"github.com/docker/go-connections/nat"
	amqpgo "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const amqpPort = "5672"
const natAMQPPort = amqpPort + "/tcp"

// SetupRabbitMQ creates a RabbitMQ container with an AMQP channel ready to declare queues and
// consume notifications. We are using the management image so you can debug tests using its admin
// panel. Use a debugger or add a time.Sleep and find the exposed management port to login to the
// UI.
func SetupRabbitMQ(t *testing.T) *AMQP {
	t.Helper()
	require := require.New(t)
	ctx := context.TODO()

	net, err := network.New(ctx)
	require.NoError(err, "failed setting up Docker network")
	t.Cleanup(func() {
		require.NoError(net.Remove(ctx), "failed to remove the Docker network")
	})

	rabbitMQContainer, err := newRabbitMQ(ctx, net.Name, "rabbitmq")
	require.NoError(err, "failed setting up RabbitMQ")
	t.Cleanup(func() {
		require.NoError(rabbitMQContainer.Terminate(ctx), "failed to terminate RabbitMQ")
	})

	URI, err := rabbitMQContainer.AMQPURI(ctx)
	require.NoError(err, "failed to get RabbitMQ AMQP URI")
	conn, err := amqpgo.Dial(URI)
	require.NoError(err, "failed setting up AMQP connection")
	t.Cleanup(func() { _ = conn.Close() })
	channel, err := conn.Channel()
	require.NoError(err, "failed setting up AMQP channel")

	return &AMQP{
		uri:     URI,
		conn:    conn,
		Channel: channel,
	}
}

// AMQP allows making requests to RabbitMQ. It does so by opening a connection and channel to
// RabbitMQ via the low-level github.com/rabbitmq/amqp091-go library.
type AMQP struct {
	uri     string
	conn    *amqpgo.Connection // Connection established with RabbitMQ
	Channel *amqpgo.Channel    // Channel established with RabbitMQ
}

// URI is the AMQP URI going to RabbitMQ.
func (a *AMQP) URI() string {
	return a.uri
}

// Bind declares an exclusive queue bound to given topic exchange using routingKey and returns the
// deliveries of that queue.
func (a *AMQP) Bind(t *testing.T, exchange, routingKey string) <-chan amqpgo.Delivery {
	t.Helper()

	queue, err := a.Channel.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err, "failed to declare queue")
	err = a.Channel.QueueBind(queue.Name, routingKey, exchange, false, nil)
	require.NoErrorf(t, err, "failed to bind queue to exchange %q", exchange)
	deliveries, err := a.Channel.Consume(queue.Name, "", true, true, false, false, nil)
	require.NoError(t, err, "failed to consume queue")
	return deliveries
}

type rabbitmqContainer struct {
	testcontainers.Container
	user string
	pw   string
}

func (rc *rabbitmqContainer) AMQPURI(ctx context.Context) (string, error) {
	ip, err := rc.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := rc.MappedPort(ctx, nat.Port(natAMQPPort))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s", rc.user, rc.pw, ip, port.Port()), nil
}

// newRabbitMQ creates a RabbitMQ container connected to given network. The container will be
// listening and ready to accept connections.
func newRabbitMQ(ctx context.Context, network, alias string) (*rabbitmqContainer, error) {
	user := "guest"
	pw := "guest"
	req := testcontainers.ContainerRequest{
		Image: "rabbitmq:3.13-management-alpine",
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": user,
			"RABBITMQ_DEFAULT_PASS": pw,
		},
		ExposedPorts: []string{natAMQPPort, "15672/tcp"},
		Networks:     []string{network},
		NetworkAliases: map[string][]string{
			network: {alias},
		},
		WaitingFor: wait.ForListeningPort(nat.Port(natAMQPPort)),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	return &rabbitmqContainer{
		Container: container,
		user:      user,
		pw:        pw,
	}, nil
}
