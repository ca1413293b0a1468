// Command vkpipectl works with vkcompute pipeline caches from the
// command line: offline digests, device capability inspection, and
// manifest-driven cache warmup.
package main

func main() {
	Execute()
}
