package main

func main() {
	CustomizeHelp(rootCmd)
	Execute()
}
