/*
Package rabbitmq implements the broker contract on AMQP 0-9-1.
It declares direct exchanges and durable/non-durable queues idempotently,
publishes envelopes with correlation and reply-to metadata, and restores
topology and consumers over an auto-reconnecting connection.
*/
package rabbitmq
