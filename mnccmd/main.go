package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eluv-io/mnc/mnccmd/cmd"
)

func main() {
	cmdRoot := &cobra.Command{
		Use:          "mnc [flags] [iface:]mgroup",
		Short:        "Multicast netcat",
		Long:         "Move datagrams between a UDP multicast group and stdin, stdout or a file.",
		SilenceUsage: true,
		Example: `  # Receive from a multicast group and display the text payload
  mnc 239.1.1.1

  # Send a string to a multicast group as a single packet
  echo "Hello World" | mnc 239.1.1.1 -i -

  # Receive on eth1
  mnc eth1:239.1.1.1

  # Receive and display statistics every 2 seconds
  mnc 239.1.1.1 -s

  # Display a hex dump of the first packet received
  mnc 239.1.1.1 -v

  # Receive exactly 10 packets then exit
  mnc 239.1.1.1 -c 10

  # Send file contents to a multicast group, each line a packet
  mnc 239.1.1.1 -i ./file.txt

  # Save multicast traffic to a file
  mnc 239.1.1.1 -o ./output.txt

  # Show periodic VITA49 statistics on a given port
  mnc 239.1.1.1 -p 12345 -t vita49 -s`,
	}

	err := cmd.InitRelay(cmdRoot)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	err = cmdRoot.Execute()
	if err != nil {
		os.Exit(1)
	}
}
